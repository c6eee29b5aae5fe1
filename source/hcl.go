package source

import (
	"sort"
	"strings"

	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/hashicorp/hcl/v2/hclsyntax"
	"github.com/zclconf/go-cty/cty"

	"go.eggybyte.com/bindx/core/errors"
)

// parseHCL evaluates every attribute of an HCL document without variables
// or functions. Block attributes are keyed by the block type and labels:
//
//	server "api" { port = 8080 }  ->  server.api.port=8080
func parseHCL(data []byte, filename string) (map[string]string, error) {
	file, diags := hclparse.NewParser().ParseHCL(data, filename)
	if diags.HasErrors() {
		return nil, errors.New(errors.CodeInvalidArgument, diags.Error())
	}

	body, ok := file.Body.(*hclsyntax.Body)
	if !ok {
		return nil, errors.New(errors.CodeInternal, "unexpected HCL body type")
	}

	config := make(map[string]string)
	if err := walkHCL("", body, config); err != nil {
		return nil, err
	}
	return config, nil
}

func walkHCL(prefix string, body *hclsyntax.Body, out map[string]string) error {
	for name, attr := range body.Attributes {
		value, diags := attr.Expr.Value(nil)
		if diags.HasErrors() {
			return errors.Newf(errors.CodeInvalidArgument, "attribute %s: %s", joinKey(prefix, name), diags.Error())
		}
		if value.IsNull() {
			out[joinKey(prefix, name)] = ""
			continue
		}
		s, err := ctyString(value)
		if err != nil {
			return errors.Wrapf(errors.CodeInvalidArgument, "source.hcl", err, "attribute %s", joinKey(prefix, name))
		}
		out[joinKey(prefix, name)] = s
	}

	for _, block := range body.Blocks {
		key := joinKey(prefix, strings.Join(append([]string{block.Type}, block.Labels...), "."))
		if err := walkHCL(key, block.Body, out); err != nil {
			return err
		}
	}
	return nil
}

// ctyString renders a known cty value. Sequences are joined with "," and
// maps/objects become "k=v" entries joined with ",", sorted by key.
func ctyString(v cty.Value) (string, error) {
	if !v.IsWhollyKnown() {
		return "", errors.New(errors.CodeInvalidArgument, "value is not known")
	}
	if v.IsNull() {
		return "", nil
	}

	ty := v.Type()
	switch {
	case ty == cty.String:
		return v.AsString(), nil
	case ty == cty.Number:
		return v.AsBigFloat().Text('f', -1), nil
	case ty == cty.Bool:
		if v.True() {
			return "true", nil
		}
		return "false", nil
	case ty.IsListType() || ty.IsTupleType() || ty.IsSetType():
		var parts []string
		for it := v.ElementIterator(); it.Next(); {
			_, e := it.Element()
			s, err := ctyString(e)
			if err != nil {
				return "", err
			}
			parts = append(parts, s)
		}
		return strings.Join(parts, listSeparator), nil
	case ty.IsMapType() || ty.IsObjectType():
		entries := make(map[string]string)
		for it := v.ElementIterator(); it.Next(); {
			k, e := it.Element()
			s, err := ctyString(e)
			if err != nil {
				return "", err
			}
			entries[k.AsString()] = s
		}
		keys := make([]string, 0, len(entries))
		for k := range entries {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		parts := make([]string, len(keys))
		for i, k := range keys {
			parts[i] = k + "=" + entries[k]
		}
		return strings.Join(parts, listSeparator), nil
	default:
		return "", errors.Newf(errors.CodeInvalidArgument, "unsupported value type %s", ty.FriendlyName())
	}
}
