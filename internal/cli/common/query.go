package common

import (
	"context"
	"strings"
	"sync"

	"github.com/itchyny/gojq"
)

var queryCodeCache sync.Map

// ApplyQuery runs a jq expression against value and collects every result.
func ApplyQuery(ctx context.Context, expression string, value any) ([]any, error) {
	trimmed := strings.TrimSpace(expression)
	if trimmed == "" {
		return []any{value}, nil
	}

	code, err := compileQuery(trimmed)
	if err != nil {
		return nil, ValidationError("invalid query expression", err)
	}

	input, err := toGeneric(value)
	if err != nil {
		return nil, ValidationError("query input is not JSON-compatible", err)
	}

	if ctx == nil {
		ctx = context.Background()
	}
	iterator := code.RunWithContext(ctx, input)
	results := make([]any, 0, 1)
	for {
		result, ok := iterator.Next()
		if !ok {
			break
		}
		if resultErr, isErr := result.(error); isErr {
			return nil, ValidationError("failed to evaluate query expression", resultErr)
		}
		results = append(results, result)
	}
	return results, nil
}

func compileQuery(expression string) (*gojq.Code, error) {
	if cached, ok := queryCodeCache.Load(expression); ok {
		if typed, ok := cached.(*gojq.Code); ok && typed != nil {
			return typed, nil
		}
	}

	query, err := gojq.Parse(expression)
	if err != nil {
		return nil, err
	}
	code, err := gojq.Compile(query)
	if err != nil {
		return nil, err
	}

	actual, _ := queryCodeCache.LoadOrStore(expression, code)
	if typed, ok := actual.(*gojq.Code); ok && typed != nil {
		return typed, nil
	}
	return code, nil
}
