package extract

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

type fakeExtractor struct {
	caps Capability
}

func (f *fakeExtractor) Capabilities() Capability { return f.caps }

func (f *fakeExtractor) Extract(ctx context.Context, path string, src []byte) (*Extraction, error) {
	return &Extraction{ParseOK: true, Definitions: []Definition{{Name: "Foo", Kind: "function"}}}, nil
}

func TestRegistryUnknownExtensionSkipsExtractor(t *testing.T) {
	reg := NewRegistry(&fakeExtractor{caps: CapDefinitions})

	ext, err := reg.Extract(context.Background(), "README.md", []byte("hello"))
	assert.NoError(t, err)
	assert.True(t, ext.ParseOK)
	assert.Empty(t, ext.Definitions)
}

func TestRegistryKnownExtensionDelegates(t *testing.T) {
	reg := NewRegistry(&fakeExtractor{caps: CapDefinitions})

	ext, err := reg.Extract(context.Background(), "main.go", []byte("package main"))
	assert.NoError(t, err)
	assert.True(t, ext.ParseOK)
	assert.Len(t, ext.Definitions, 1)
	assert.Equal(t, "Foo", ext.Definitions[0].Name)
}

func TestLanguageOf(t *testing.T) {
	reg := NewRegistry(&fakeExtractor{})
	assert.Equal(t, LangGo, reg.LanguageOf("x/y.go"))
	assert.Equal(t, LangPython, reg.LanguageOf("x/y.py"))
	assert.Equal(t, LangUnknown, reg.LanguageOf("x/y.unknown"))
}

func TestCapabilityHas(t *testing.T) {
	c := CapDefinitions | CapCalls
	assert.True(t, c.Has(CapDefinitions))
	assert.True(t, c.Has(CapCalls))
	assert.False(t, c.Has(CapImports))
}
