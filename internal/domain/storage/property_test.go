package storage_test

import (
	"strings"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/webfutureiorepo/supabase/internal/domain/storage"
)

func nameGen() gopter.Gen {
	return gopter.CombineGens(
		gen.AlphaString(),
		gen.OneConstOf("", ".txt", ".png", ".tar.gz", "."),
	).Map(func(values []interface{}) string {
		return values[0].(string) + values[1].(string)
	}).SuchThat(func(name string) bool { return name != "" })
}

func containsFold(column storage.Column, name string) bool {
	for _, item := range column.Items {
		if strings.EqualFold(item.Name, name) {
			return true
		}
	}
	return false
}

func TestAutofixProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("repeated autofix always yields a new name", prop.ForAll(
		func(name string, rounds int) bool {
			column := storage.Column{Items: []storage.Item{{Object: storage.Object{Name: name}}}}
			for i := 0; i < rounds; i++ {
				fixed, ok := storage.SanitizeNameForDuplicateInColumn(
					[]storage.Column{column},
					storage.SanitizeOptions{Name: name, Autofix: true},
					nil,
				)
				if !ok || containsFold(column, fixed) {
					return false
				}
				column.Items = append(column.Items, storage.Item{Object: storage.Object{Name: fixed}})
			}
			return true
		},
		nameGen(),
		gen.IntRange(1, 8),
	))

	properties.Property("names without a conflict pass through", prop.ForAll(
		func(name string, others []string) bool {
			var column storage.Column
			for _, other := range others {
				if !strings.EqualFold(other, name) {
					column.Items = append(column.Items, storage.Item{Object: storage.Object{Name: other}})
				}
			}
			got, ok := storage.SanitizeNameForDuplicateInColumn([]storage.Column{column}, storage.SanitizeOptions{Name: name}, nil)
			return ok && got == name
		},
		gen.AlphaString(),
		gen.SliceOf(gen.AlphaString()),
	))

	properties.Property("valid names report no character", prop.ForAll(
		func(name string) bool {
			msg, invalid := storage.ValidateFolderName(name)
			return !invalid && msg == ""
		},
		gen.AlphaString(),
	))

	properties.TestingRun(t)
}
