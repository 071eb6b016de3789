package logging

import (
	"context"
	"maps"

	"github.com/sirupsen/logrus"
)

type fieldsKey struct{}

// WithFields returns a context whose loggers carry the given fields in addition to any already attached.
func WithFields(ctx context.Context, fields map[string]any) context.Context {
	merged := logrus.Fields{}
	maps.Copy(merged, FieldsFromContext(ctx))
	maps.Copy(merged, fields)
	return context.WithValue(ctx, fieldsKey{}, merged)
}

func FieldsFromContext(ctx context.Context) logrus.Fields {
	if ctx == nil {
		return nil
	}
	fields, _ := ctx.Value(fieldsKey{}).(logrus.Fields)
	return fields
}
