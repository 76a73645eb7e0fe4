package decode

import (
	"time"

	"github.com/mitchellh/mapstructure"

	"TeamHive/tools/errs"
)

// Patch decodes a raw JSON object into an allow-listed patch struct.
// Fields absent from the payload stay nil on the target, so handlers can
// tell "not sent" apart from "sent as zero". Unknown keys are dropped,
// which is the whole point: no arbitrary field injection into documents.
func Patch(src map[string]any, dst any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           dst,
		TagName:          "json",
		WeaklyTypedInput: true,
		DecodeHook:       mapstructure.StringToTimeHookFunc(time.RFC3339),
	})
	if err != nil {
		return errs.ErrInternal.WrapMsg("patch decoder", "err", err)
	}
	if err := dec.Decode(src); err != nil {
		return errs.ErrValidation.WrapMsg("malformed patch", "err", err)
	}
	return nil
}
