package domain

import (
	"bytes"
	"encoding/json"

	apperrors "property-listing/pkg/errors"
)

// 更新时不允许客户端改写的字段
var protectedKeys = []string{"id", "userId", "createdAt", "updatedAt"}

// DecodePatch 去掉受保护字段后严格解码，未知字段报 InvalidArgument
func DecodePatch(raw []byte) (PropertyPatch, error) {
	var patch PropertyPatch
	var m map[string]json.RawMessage
	if err := json.Unmarshal(raw, &m); err != nil {
		return patch, apperrors.Wrap(apperrors.CodeInvalidArgument, err, "patch must be a JSON object")
	}
	for _, k := range protectedKeys {
		delete(m, k)
	}
	clean, err := json.Marshal(m)
	if err != nil {
		return patch, apperrors.Wrap(apperrors.CodeInvalidArgument, err, "patch")
	}
	dec := json.NewDecoder(bytes.NewReader(clean))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&patch); err != nil {
		return patch, apperrors.Wrap(apperrors.CodeInvalidArgument, err, "invalid patch")
	}
	return patch, nil
}
