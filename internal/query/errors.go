package query

import (
	lumoraerrors "github.com/quintant/lumora/internal/errors"
)

func invalidSelectorForOp(op, reason string) error {
	return lumoraerrors.New(lumoraerrors.InvalidArgument, op+": "+reason, nil)
}
