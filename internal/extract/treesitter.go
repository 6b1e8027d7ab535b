//go:build cgo

package extract

import (
	"context"
	"fmt"
	"strings"
	"sync"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/golang"
	"github.com/smacker/go-tree-sitter/java"
	"github.com/smacker/go-tree-sitter/javascript"
	"github.com/smacker/go-tree-sitter/kotlin"
	"github.com/smacker/go-tree-sitter/python"
	"github.com/smacker/go-tree-sitter/rust"
	"github.com/smacker/go-tree-sitter/typescript/tsx"
	"github.com/smacker/go-tree-sitter/typescript/typescript"
)

// TreeSitterExtractor extracts definitions, references, imports, and
// calls from source using tree-sitter grammars. Node-type dispatch
// follows the same per-language switch idiom the teacher uses for
// symbol extraction, generalized here to also cover imports and calls.
type TreeSitterExtractor struct {
	mu     sync.Mutex
	parser *sitter.Parser
}

// NewTreeSitterExtractor creates an extractor with a fresh *sitter.Parser.
// The parser is not safe for concurrent use, and the indexer's workers
// all share the one instance held by the registry, so Extract holds mu
// while it parses.
func NewTreeSitterExtractor() *TreeSitterExtractor {
	return &TreeSitterExtractor{parser: sitter.NewParser()}
}

func (e *TreeSitterExtractor) Capabilities() Capability {
	// Fingerprints are computed post-extraction by internal/clone, never
	// by Extract itself, so CapFingerprints is not advertised here.
	return CapDefinitions | CapReferences | CapImports | CapCalls
}

// Available reports whether tree-sitter extraction is compiled in.
func Available() bool { return true }

func (e *TreeSitterExtractor) Extract(ctx context.Context, path string, src []byte) (*Extraction, error) {
	lang, ok := LanguageFromExtension(extOf(path))
	if !ok {
		return &Extraction{ParseOK: true}, nil
	}

	tsLang, err := tsLanguage(lang)
	if err != nil {
		return &Extraction{ParseOK: true}, nil
	}

	e.mu.Lock()
	e.parser.SetLanguage(tsLang)
	tree, err := e.parser.ParseCtx(ctx, nil, src)
	e.mu.Unlock()
	if err != nil {
		return &Extraction{ParseOK: false}, fmt.Errorf("parse %s: %w", path, err)
	}
	root := tree.RootNode()

	ext := &Extraction{ParseOK: true}
	collectDefinitions(root, src, lang, ext)
	collectImports(root, src, lang, ext)
	collectReferences(root, src, lang, ext)
	return ext, nil
}

func extOf(path string) string {
	idx := strings.LastIndexByte(path, '.')
	if idx < 0 {
		return ""
	}
	return path[idx:]
}

func tsLanguage(lang Language) (*sitter.Language, error) {
	switch lang {
	case LangGo:
		return golang.GetLanguage(), nil
	case LangJavaScript:
		return javascript.GetLanguage(), nil
	case LangTypeScript:
		return typescript.GetLanguage(), nil
	case LangTSX:
		return tsx.GetLanguage(), nil
	case LangPython:
		return python.GetLanguage(), nil
	case LangRust:
		return rust.GetLanguage(), nil
	case LangJava:
		return java.GetLanguage(), nil
	case LangKotlin:
		return kotlin.GetLanguage(), nil
	default:
		return nil, fmt.Errorf("unsupported language: %s", lang)
	}
}

// --- definitions -----------------------------------------------------

func collectDefinitions(root *sitter.Node, src []byte, lang Language, out *Extraction) {
	for _, fn := range findNodes(root, functionNodeTypes(lang)) {
		if def := definitionFromFunction(fn, src, lang, ""); def != nil {
			out.Definitions = append(out.Definitions, *def)
		}
	}

	for _, cls := range findNodes(root, classNodeTypes(lang)) {
		def := definitionFromClass(cls, src, lang)
		if def == nil {
			continue
		}
		out.Definitions = append(out.Definitions, *def)

		for _, m := range findNodes(cls, methodNodeTypes(lang)) {
			if mdef := definitionFromFunction(m, src, lang, def.Name); mdef != nil {
				out.Definitions = append(out.Definitions, *mdef)
			}
		}
	}
}

func definitionFromFunction(node *sitter.Node, src []byte, lang Language, container string) *Definition {
	name := functionName(node, src, lang)
	if name == "" {
		return nil
	}
	kind := "function"
	if container != "" {
		kind = "method"
	}
	return &Definition{
		Name:      name,
		Kind:      kind,
		StartLine: int(node.StartPoint().Row) + 1,
		EndLine:   int(node.EndPoint().Row) + 1,
		Signature: firstLine(node, src),
		Container: container,
		Exported:  isExported(name, lang),
	}
}

func definitionFromClass(node *sitter.Node, src []byte, lang Language) *Definition {
	name := className(node, src, lang)
	if name == "" {
		return nil
	}
	return &Definition{
		Name:      name,
		Kind:      classKind(node, lang),
		StartLine: int(node.StartPoint().Row) + 1,
		EndLine:   int(node.EndPoint().Row) + 1,
		Signature: firstLine(node, src),
		Exported:  isExported(name, lang),
	}
}

func functionNodeTypes(lang Language) []string {
	switch lang {
	case LangGo:
		return []string{"function_declaration", "method_declaration"}
	case LangJavaScript, LangTypeScript, LangTSX:
		return []string{"function_declaration", "generator_function_declaration"}
	case LangPython:
		return []string{"function_definition"}
	case LangRust:
		return []string{"function_item"}
	case LangJava:
		return nil // top-level methods live in class bodies
	case LangKotlin:
		return []string{"function_declaration"}
	default:
		return nil
	}
}

func classNodeTypes(lang Language) []string {
	switch lang {
	case LangGo:
		return []string{"type_declaration"}
	case LangJavaScript, LangTypeScript, LangTSX:
		return []string{"class_declaration", "interface_declaration"}
	case LangPython:
		return []string{"class_definition"}
	case LangRust:
		return []string{"struct_item", "enum_item", "trait_item", "impl_item"}
	case LangJava:
		return []string{"class_declaration", "interface_declaration", "enum_declaration"}
	case LangKotlin:
		return []string{"class_declaration", "interface_declaration", "object_declaration"}
	default:
		return nil
	}
}

func methodNodeTypes(lang Language) []string {
	switch lang {
	case LangGo:
		return nil // Go methods are top-level declarations with receivers
	case LangJavaScript, LangTypeScript, LangTSX:
		return []string{"method_definition"}
	case LangPython:
		return []string{"function_definition"}
	case LangRust:
		return []string{"function_item"}
	case LangJava:
		return []string{"method_declaration", "constructor_declaration"}
	case LangKotlin:
		return []string{"function_declaration"}
	default:
		return nil
	}
}

func functionName(node *sitter.Node, src []byte, lang Language) string {
	var nameNode *sitter.Node
	switch lang {
	case LangGo:
		nameNode = node.ChildByFieldName("name")
	case LangJavaScript, LangTypeScript, LangTSX, LangPython, LangRust, LangJava:
		nameNode = node.ChildByFieldName("name")
	case LangKotlin:
		nameNode = firstChildOfType(node, "simple_identifier")
	}
	if nameNode == nil {
		return ""
	}
	return string(src[nameNode.StartByte():nameNode.EndByte()])
}

func className(node *sitter.Node, src []byte, lang Language) string {
	var nameNode *sitter.Node
	switch lang {
	case LangGo:
		if spec := firstChildOfType(node, "type_spec"); spec != nil {
			nameNode = spec.ChildByFieldName("name")
		}
	case LangJavaScript, LangTypeScript, LangTSX, LangPython:
		nameNode = node.ChildByFieldName("name")
	case LangRust:
		nameNode = node.ChildByFieldName("name")
		if nameNode == nil && node.Type() == "impl_item" {
			nameNode = firstChildOfType(node, "type_identifier")
		}
	case LangJava, LangKotlin:
		nameNode = node.ChildByFieldName("name")
		if nameNode == nil {
			nameNode = firstChildOfType(node, "identifier")
		}
		if nameNode == nil {
			nameNode = firstChildOfType(node, "simple_identifier")
		}
	}
	if nameNode == nil {
		return ""
	}
	return string(src[nameNode.StartByte():nameNode.EndByte()])
}

func classKind(node *sitter.Node, lang Language) string {
	t := node.Type()
	switch lang {
	case LangGo:
		return "type"
	case LangJavaScript, LangTypeScript, LangTSX:
		if t == "interface_declaration" {
			return "interface"
		}
		return "class"
	case LangPython:
		return "class"
	case LangRust:
		if t == "trait_item" {
			return "interface"
		}
		return "type"
	case LangJava, LangKotlin:
		switch t {
		case "interface_declaration":
			return "interface"
		case "enum_declaration":
			return "type"
		}
		return "class"
	}
	return "type"
}

func isExported(name string, lang Language) bool {
	if name == "" {
		return false
	}
	switch lang {
	case LangGo:
		r := name[0]
		return r >= 'A' && r <= 'Z'
	case LangPython:
		return !strings.HasPrefix(name, "_")
	default:
		return true
	}
}

func firstLine(node *sitter.Node, src []byte) string {
	text := src[node.StartByte():node.EndByte()]
	for i, b := range text {
		if b == '\n' || b == '{' {
			return strings.TrimSpace(string(text[:i]))
		}
	}
	if len(text) < 160 {
		return strings.TrimSpace(string(text))
	}
	return strings.TrimSpace(string(text[:160])) + "..."
}

// --- imports -----------------------------------------------------------

func collectImports(root *sitter.Node, src []byte, lang Language, out *Extraction) {
	for _, node := range findNodes(root, importNodeTypes(lang)) {
		if imp := importFromNode(node, src, lang); imp != nil {
			out.Imports = append(out.Imports, *imp)
		}
	}
}

func importNodeTypes(lang Language) []string {
	switch lang {
	case LangGo:
		return []string{"import_spec"}
	case LangJavaScript, LangTypeScript, LangTSX:
		return []string{"import_statement"}
	case LangPython:
		return []string{"import_statement", "import_from_statement"}
	case LangRust:
		return []string{"use_declaration"}
	case LangJava:
		return []string{"import_declaration"}
	case LangKotlin:
		return []string{"import_header"}
	default:
		return nil
	}
}

func importFromNode(node *sitter.Node, src []byte, lang Language) *ImportStmt {
	switch lang {
	case LangGo:
		pathNode := node.ChildByFieldName("path")
		if pathNode == nil {
			return nil
		}
		raw := strings.Trim(string(src[pathNode.StartByte():pathNode.EndByte()]), `"`)
		alias := ""
		if aliasNode := node.ChildByFieldName("name"); aliasNode != nil {
			alias = string(src[aliasNode.StartByte():aliasNode.EndByte()])
		}
		return &ImportStmt{RawPath: raw, Alias: alias}
	case LangJavaScript, LangTypeScript, LangTSX:
		sourceNode := node.ChildByFieldName("source")
		if sourceNode == nil {
			return nil
		}
		raw := strings.Trim(string(src[sourceNode.StartByte():sourceNode.EndByte()]), `"'`)
		return &ImportStmt{RawPath: raw}
	case LangPython:
		nameNode := node.ChildByFieldName("module_name")
		if nameNode == nil {
			nameNode = firstChildOfType(node, "dotted_name")
		}
		if nameNode == nil {
			return nil
		}
		return &ImportStmt{RawPath: string(src[nameNode.StartByte():nameNode.EndByte()])}
	case LangRust:
		argNode := node.ChildByFieldName("argument")
		if argNode == nil {
			return nil
		}
		return &ImportStmt{RawPath: string(src[argNode.StartByte():argNode.EndByte()])}
	case LangJava:
		if nameNode := firstChildOfType(node, "scoped_identifier"); nameNode != nil {
			return &ImportStmt{RawPath: string(src[nameNode.StartByte():nameNode.EndByte()])}
		}
		return nil
	case LangKotlin:
		if idNode := firstChildOfType(node, "identifier"); idNode != nil {
			return &ImportStmt{RawPath: string(src[idNode.StartByte():idNode.EndByte()])}
		}
		return nil
	}
	return nil
}

// --- references and calls -----------------------------------------------

func collectReferences(root *sitter.Node, src []byte, lang Language, out *Extraction) {
	callNodeType, identNodeType := callAndIdentifierTypes(lang)

	callTargets := map[*sitter.Node]bool{}
	for _, call := range findNodes(root, []string{callNodeType}) {
		fn := call.ChildByFieldName("function")
		if fn == nil {
			continue
		}
		target := fn
		if fn.Type() != identNodeType {
			// method call like pkg.Func / obj.method(): take the rightmost identifier.
			if last := lastChildOfType(fn, identNodeType); last != nil {
				target = last
			}
		}
		callTargets[target] = true
	}

	for _, ident := range findNodes(root, []string{identNodeType}) {
		name := string(src[ident.StartByte():ident.EndByte()])
		if name == "" {
			continue
		}
		out.References = append(out.References, Reference{
			Name:   name,
			Line:   int(ident.StartPoint().Row) + 1,
			Column: int(ident.StartPoint().Column) + 1,
			IsCall: callTargets[ident],
		})
	}
}

func callAndIdentifierTypes(lang Language) (call, ident string) {
	switch lang {
	case LangGo:
		return "call_expression", "identifier"
	case LangJavaScript, LangTypeScript, LangTSX:
		return "call_expression", "identifier"
	case LangPython:
		return "call", "identifier"
	case LangRust:
		return "call_expression", "identifier"
	case LangJava:
		return "method_invocation", "identifier"
	case LangKotlin:
		return "call_expression", "simple_identifier"
	default:
		return "call_expression", "identifier"
	}
}

// --- node walking helpers ------------------------------------------------

func findNodes(root *sitter.Node, types []string) []*sitter.Node {
	if len(types) == 0 || root == nil {
		return nil
	}
	var result []*sitter.Node
	var walk func(*sitter.Node)
	walk = func(n *sitter.Node) {
		if n == nil {
			return
		}
		if containsType(types, n.Type()) {
			result = append(result, n)
		}
		for i := uint32(0); i < n.ChildCount(); i++ {
			walk(n.Child(int(i)))
		}
	}
	walk(root)
	return result
}

func containsType(types []string, t string) bool {
	for _, want := range types {
		if want == t {
			return true
		}
	}
	return false
}

func firstChildOfType(node *sitter.Node, t string) *sitter.Node {
	for i := uint32(0); i < node.ChildCount(); i++ {
		if c := node.Child(int(i)); c != nil && c.Type() == t {
			return c
		}
	}
	return nil
}

func lastChildOfType(node *sitter.Node, t string) *sitter.Node {
	var found *sitter.Node
	for i := uint32(0); i < node.ChildCount(); i++ {
		if c := node.Child(int(i)); c != nil && c.Type() == t {
			found = c
		}
	}
	return found
}
