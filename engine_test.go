package opcheck

import (
	"fmt"
	"math"
	"slices"
	"strconv"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/opcheck-dev/opcheck/catalog"
	"github.com/opcheck-dev/opcheck/operrors"
)

// applyOne folds a single rule over value with a bare engine.
func applyOne(r catalog.Rule, value any, present bool) (any, error) {
	v := &Validator{}
	p := &catalog.Param{Name: "p", Source: catalog.SourceQuery, Rules: []catalog.Rule{r}}
	return v.applyRules("testOp", p, value, present)
}

func typeRule(name catalog.TypeName) catalog.Rule {
	return catalog.Rule{Kind: catalog.KindType, Type: name}
}

func boundRule(kind catalog.RuleKind, bound float64) catalog.Rule {
	return catalog.Rule{Kind: kind, Bound: &bound}
}

func lengthRule(kind catalog.RuleKind, n int) catalog.Rule {
	return catalog.Rule{Kind: kind, Length: &n}
}

func TestRequiredRules(t *testing.T) {
	t.Run("required passes present values through", func(t *testing.T) {
		got, err := applyOne(catalog.Rule{Kind: catalog.KindRequired}, "sold", true)
		require.NoError(t, err)
		assert.Equal(t, "sold", got)
	})

	t.Run("required fails on absent", func(t *testing.T) {
		_, err := applyOne(catalog.Rule{Kind: catalog.KindRequired}, nil, false)
		require.Error(t, err)
		assert.ErrorIs(t, err, operrors.ErrValidation)

		var verr *operrors.ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Equal(t, "required", verr.Rule)
		assert.Equal(t, "p", verr.Param)
	})

	t.Run("not_required always passes", func(t *testing.T) {
		got, err := applyOne(catalog.Rule{Kind: catalog.KindNotRequired}, nil, false)
		require.NoError(t, err)
		assert.Nil(t, got)

		got, err = applyOne(catalog.Rule{Kind: catalog.KindNotRequired}, "x", true)
		require.NoError(t, err)
		assert.Equal(t, "x", got)
	})
}

// Every rule except required passes absent values through untouched, so
// optional parameters never trip their own constraints.
func TestAbsentPassthrough(t *testing.T) {
	rules := []catalog.Rule{
		typeRule(catalog.TypeInteger),
		typeRule(catalog.TypeBoolean),
		{Kind: catalog.KindEnum, Enum: []string{"a", "b"}},
		boundRule(catalog.KindMax, 5),
		boundRule(catalog.KindExclusiveMin, 0),
		lengthRule(catalog.KindMinLength, 3),
		{Kind: catalog.KindPattern, Pattern: "^x$"},
		{Kind: catalog.KindSchema},
	}
	for _, r := range rules {
		t.Run(string(r.Kind), func(t *testing.T) {
			got, err := applyOne(r, nil, false)
			require.NoError(t, err)
			assert.Nil(t, got)
		})
	}
}

func TestBooleanCoercion(t *testing.T) {
	tests := []struct {
		name   string
		in     any
		want   any
		wantOK bool
	}{
		{"native true", true, true, true},
		{"native false", false, false, true},
		{"lowercase true", "true", true, true},
		{"uppercase TRUE", "TRUE", true, true},
		{"mixed case False", "False", false, true},
		{"mixed case tRuE", "tRuE", true, true},
		{"byte slice false", []byte("false"), false, true},
		{"numeric 1 is not a boolean", "1", nil, false},
		{"yes is not a boolean", "yes", nil, false},
		{"native int fails", 1, nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := applyOne(typeRule(catalog.TypeBoolean), tt.in, true)
			if !tt.wantOK {
				require.Error(t, err)
				assert.ErrorIs(t, err, operrors.ErrValidation)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestIntegerCoercion(t *testing.T) {
	tests := []struct {
		name   string
		in     any
		want   any
		wantOK bool
	}{
		{"textual decimal", "42", int64(42), true},
		{"textual negative", "-7", int64(-7), true},
		{"byte slice", []byte("42"), int64(42), true},
		{"native int passes unchanged", 42, 42, true},
		{"native float passes unchanged", 3.5, 3.5, true},
		{"textual float fails", "3.5", nil, false},
		{"letters fail", "abc", nil, false},
		{"leading space fails", " 42", nil, false},
		{"bool fails", true, nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := applyOne(typeRule(catalog.TypeInteger), tt.in, true)
			if !tt.wantOK {
				require.Error(t, err)
				assert.ErrorIs(t, err, operrors.ErrValidation)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFloatCoercion(t *testing.T) {
	tests := []struct {
		name   string
		in     any
		want   any
		wantOK bool
	}{
		{"textual decimal", "3.14", 3.14, true},
		{"textual negative", "-0.5", -0.5, true},
		{"scientific notation", "1e3", 1000.0, true},
		{"textual integer", "7", 7.0, true},
		{"native int passes unchanged", 42, 42, true},
		{"letters fail", "abc", nil, false},
		{"non-numeric non-textual fails", struct{}{}, nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := applyOne(typeRule(catalog.TypeFloat), tt.in, true)
			if !tt.wantOK {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestTextualTypes(t *testing.T) {
	textual := []catalog.TypeName{
		catalog.TypeString, catalog.TypeBinary, catalog.TypeDate, catalog.TypeDateTime,
	}
	for _, name := range textual {
		t.Run(string(name), func(t *testing.T) {
			got, err := applyOne(typeRule(name), "payload", true)
			require.NoError(t, err)
			assert.Equal(t, "payload", got)

			got, err = applyOne(typeRule(name), []byte{0x01, 0x02}, true)
			require.NoError(t, err)
			assert.Equal(t, []byte{0x01, 0x02}, got)

			_, err = applyOne(typeRule(name), 42, true)
			require.Error(t, err)
			assert.ErrorIs(t, err, operrors.ErrValidation)
		})
	}

	// Dates are only checked for being textual at this layer.
	t.Run("date accepts any text", func(t *testing.T) {
		got, err := applyOne(typeRule(catalog.TypeDate), "not-a-date", true)
		require.NoError(t, err)
		assert.Equal(t, "not-a-date", got)
	})
}

func TestEnumMembership(t *testing.T) {
	rule := catalog.Rule{Kind: catalog.KindEnum, Enum: []string{"available", "pending", "sold"}}

	t.Run("member passes and coerces to the member", func(t *testing.T) {
		got, err := applyOne(rule, "sold", true)
		require.NoError(t, err)
		assert.Equal(t, "sold", got)
	})

	t.Run("byte slice coerces to the member string", func(t *testing.T) {
		got, err := applyOne(rule, []byte("pending"), true)
		require.NoError(t, err)
		assert.Equal(t, "pending", got)
	})

	t.Run("membership is case-sensitive", func(t *testing.T) {
		_, err := applyOne(rule, "Sold", true)
		require.Error(t, err)
		assert.ErrorIs(t, err, operrors.ErrValidation)
	})

	t.Run("non-member fails citing the members", func(t *testing.T) {
		_, err := applyOne(rule, "lost", true)
		require.Error(t, err)
		assert.ErrorContains(t, err, "available")
	})

	t.Run("non-textual fails", func(t *testing.T) {
		_, err := applyOne(rule, 42, true)
		require.Error(t, err)
		assert.ErrorIs(t, err, operrors.ErrValidation)
	})
}

func TestBounds(t *testing.T) {
	tests := []struct {
		name   string
		kind   catalog.RuleKind
		bound  float64
		in     any
		wantOK bool
	}{
		{"min inclusive at bound", catalog.KindMin, 5, 5, true},
		{"min just below", catalog.KindMin, 5, 4.99, false},
		{"max inclusive at bound", catalog.KindMax, 5, 5, true},
		{"max just above", catalog.KindMax, 5, 5.01, false},
		{"exclusive_max at bound", catalog.KindExclusiveMax, 100, 100, false},
		{"exclusive_max below", catalog.KindExclusiveMax, 100, 99.9, true},
		{"exclusive_min at bound", catalog.KindExclusiveMin, 0, 0, false},
		{"exclusive_min above", catalog.KindExclusiveMin, 0, 0.01, true},
		{"exclusive_min below", catalog.KindExclusiveMin, 0, -1, false},
		{"int64 widens for comparison", catalog.KindMax, 5, int64(7), false},
		{"textual parses for comparison", catalog.KindMax, 5, "10", false},
		{"textual within bound", catalog.KindMax, 5, "3", true},
		{"non-numeric text fails", catalog.KindMin, 5, "abc", false},
		{"non-numeric non-text fails", catalog.KindMin, 5, []int{1}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := applyOne(boundRule(tt.kind, tt.bound), tt.in, true)
			if !tt.wantOK {
				require.Error(t, err)
				assert.ErrorIs(t, err, operrors.ErrValidation)
				return
			}
			require.NoError(t, err)
			// Comparison rules never replace the accumulator.
			assert.Equal(t, tt.in, got)
		})
	}
}

// Exclusive-min rejects the bound itself and everything below it, mirroring
// exclusive-max. Pinned so the comparison direction cannot regress.
func TestExclusiveMinDirection(t *testing.T) {
	rule := boundRule(catalog.KindExclusiveMin, 10)

	for _, below := range []any{10, 9.999, "10", int64(-3)} {
		_, err := applyOne(rule, below, true)
		assert.Error(t, err, "value %v must not satisfy exclusive_min 10", below)
	}
	for _, above := range []any{10.001, 11, "10.5", int64(400)} {
		_, err := applyOne(rule, above, true)
		assert.NoError(t, err, "value %v must satisfy exclusive_min 10", above)
	}
}

func TestLengths(t *testing.T) {
	t.Run("string length counts runes", func(t *testing.T) {
		// 5 runes, 6 bytes
		got, err := applyOne(lengthRule(catalog.KindMaxLength, 5), "héllo", true)
		require.NoError(t, err)
		assert.Equal(t, "héllo", got)

		_, err = applyOne(lengthRule(catalog.KindMaxLength, 5), "hello!", true)
		require.Error(t, err)
	})

	t.Run("byte slice length counts bytes", func(t *testing.T) {
		_, err := applyOne(lengthRule(catalog.KindMaxLength, 5), []byte("héllo"), true)
		require.Error(t, err)
		assert.ErrorContains(t, err, "6")
	})

	t.Run("min_length boundary", func(t *testing.T) {
		_, err := applyOne(lengthRule(catalog.KindMinLength, 3), "ab", true)
		require.Error(t, err)

		got, err := applyOne(lengthRule(catalog.KindMinLength, 3), "abc", true)
		require.NoError(t, err)
		assert.Equal(t, "abc", got)
	})

	t.Run("non-textual has no length", func(t *testing.T) {
		_, err := applyOne(lengthRule(catalog.KindMinLength, 1), 42, true)
		require.Error(t, err)
		assert.ErrorContains(t, err, "no length")
	})
}

func TestPattern(t *testing.T) {
	t.Run("anchored pattern", func(t *testing.T) {
		got, err := applyOne(catalog.Rule{Kind: catalog.KindPattern, Pattern: "^[a-z]+$"}, "abc", true)
		require.NoError(t, err)
		assert.Equal(t, "abc", got)

		_, err = applyOne(catalog.Rule{Kind: catalog.KindPattern, Pattern: "^[a-z]+$"}, "Abc", true)
		require.Error(t, err)
	})

	t.Run("unanchored pattern matches anywhere", func(t *testing.T) {
		_, err := applyOne(catalog.Rule{Kind: catalog.KindPattern, Pattern: "b"}, "abc", true)
		require.NoError(t, err)
	})

	t.Run("non-textual fails validation", func(t *testing.T) {
		_, err := applyOne(catalog.Rule{Kind: catalog.KindPattern, Pattern: "x"}, 42, true)
		require.Error(t, err)
		assert.ErrorIs(t, err, operrors.ErrValidation)
	})

	t.Run("uncompilable pattern is a catalog defect", func(t *testing.T) {
		_, err := applyOne(catalog.Rule{Kind: catalog.KindPattern, Pattern: "[invalid"}, "x", true)
		require.Error(t, err)
		assert.ErrorIs(t, err, operrors.ErrCatalogDefect)
		assert.NotErrorIs(t, err, operrors.ErrValidation)
	})
}

// The compiled-pattern cache never grows past its cap; patterns beyond the
// cap still work, they just compile per call.
func TestPatternCacheCap(t *testing.T) {
	for i := 0; i < patternCacheCap+20; i++ {
		expr := fmt.Sprintf("^cache-probe-%d$", i)
		_, err := applyOne(catalog.Rule{Kind: catalog.KindPattern, Pattern: expr},
			fmt.Sprintf("cache-probe-%d", i), true)
		require.NoError(t, err)
	}
	assert.LessOrEqual(t, patternCacheSize.Load(), int32(patternCacheCap))

	// An over-cap pattern still validates correctly.
	_, err := applyOne(catalog.Rule{Kind: catalog.KindPattern, Pattern: "^over-cap$"}, "nope", true)
	assert.Error(t, err)
}

func TestUnknownRuleKind(t *testing.T) {
	_, err := applyOne(catalog.Rule{Kind: catalog.RuleKind("frobnicate")}, "x", true)
	require.Error(t, err)

	assert.ErrorIs(t, err, operrors.ErrUnknownRule)
	assert.ErrorIs(t, err, operrors.ErrCatalogDefect)
	assert.NotErrorIs(t, err, operrors.ErrValidation)

	var ure *operrors.UnknownRuleError
	require.ErrorAs(t, err, &ure)
	assert.Equal(t, "frobnicate", ure.Kind)
	assert.Equal(t, "p", ure.Param)
}

// Rules fold in declaration order over an accumulator, so coercion feeds
// the comparisons that follow it.
func TestRuleFoldOrder(t *testing.T) {
	v := &Validator{}
	p := &catalog.Param{
		Name:   "petId",
		Source: catalog.SourcePath,
		Rules: []catalog.Rule{
			{Kind: catalog.KindRequired},
			typeRule(catalog.TypeInteger),
			boundRule(catalog.KindMin, 10),
		},
	}

	got, err := v.applyRules("getPetById", p, "42", true)
	require.NoError(t, err)
	assert.Equal(t, int64(42), got)

	_, err = v.applyRules("getPetById", p, "5", true)
	var verr *operrors.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "min", verr.Rule, "coerced value should fail the bound, not the type rule")

	_, err = v.applyRules("getPetById", p, "abc", true)
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "type", verr.Rule)

	_, err = v.applyRules("getPetById", p, nil, false)
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "required", verr.Rule)
}

func TestIntegerCoercionProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		n := rapid.Int64().Draw(t, "n")
		got, err := applyOne(typeRule(catalog.TypeInteger), strconv.FormatInt(n, 10), true)
		if err != nil {
			t.Fatalf("formatted integer %d failed coercion: %v", n, err)
		}
		if got != n {
			t.Fatalf("coercion round-trip mismatch: %d != %v", n, got)
		}
	})
}

func TestFloatCoercionProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		f := rapid.Float64().Draw(t, "f")
		s := strconv.FormatFloat(f, 'g', -1, 64)
		got, err := applyOne(typeRule(catalog.TypeFloat), s, true)
		if err != nil {
			t.Fatalf("formatted float %v failed coercion: %v", f, err)
		}
		g, ok := got.(float64)
		if !ok {
			t.Fatalf("coercion produced %T, want float64", got)
		}
		if math.IsNaN(f) {
			if !math.IsNaN(g) {
				t.Fatalf("NaN round-trip produced %v", g)
			}
			return
		}
		if g != f {
			t.Fatalf("coercion round-trip mismatch: %v != %v", f, g)
		}
	})
}

func TestEnumMembershipProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		members := rapid.SliceOfN(rapid.StringMatching(`[a-z]{1,6}`), 1, 5).Draw(t, "members")
		candidate := rapid.StringMatching(`[a-z]{1,6}`).Draw(t, "candidate")

		got, err := applyOne(catalog.Rule{Kind: catalog.KindEnum, Enum: members}, candidate, true)
		if slices.Contains(members, candidate) {
			if err != nil {
				t.Fatalf("member %q rejected against %v: %v", candidate, members, err)
			}
			if got != candidate {
				t.Fatalf("member %q coerced to %v", candidate, got)
			}
		} else if err == nil {
			t.Fatalf("non-member %q accepted against %v", candidate, members)
		}
	})
}

func TestLengthBoundaryProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		limit := rapid.IntRange(0, 12).Draw(t, "limit")
		s := rapid.StringN(-1, 24, -1).Draw(t, "s")
		runes := utf8.RuneCountInString(s)

		_, err := applyOne(lengthRule(catalog.KindMaxLength, limit), s, true)
		if runes <= limit && err != nil {
			t.Fatalf("%d-rune string rejected by max_length %d: %v", runes, limit, err)
		}
		if runes > limit && err == nil {
			t.Fatalf("%d-rune string accepted by max_length %d", runes, limit)
		}

		_, err = applyOne(lengthRule(catalog.KindMinLength, limit), s, true)
		if runes >= limit && err != nil {
			t.Fatalf("%d-rune string rejected by min_length %d: %v", runes, limit, err)
		}
		if runes < limit && err == nil {
			t.Fatalf("%d-rune string accepted by min_length %d", runes, limit)
		}
	})
}

// A rule payload the vetting layer would reject still fails loudly if it
// reaches the engine.
func TestDefectivePayloads(t *testing.T) {
	t.Run("bound without payload", func(t *testing.T) {
		_, err := applyOne(catalog.Rule{Kind: catalog.KindMax}, 5, true)
		require.Error(t, err)
		assert.ErrorIs(t, err, operrors.ErrCatalogDefect)
	})

	t.Run("length without payload", func(t *testing.T) {
		_, err := applyOne(catalog.Rule{Kind: catalog.KindMinLength}, "x", true)
		require.Error(t, err)
		assert.ErrorIs(t, err, operrors.ErrCatalogDefect)
	})

	t.Run("unknown type name", func(t *testing.T) {
		_, err := applyOne(catalog.Rule{Kind: catalog.KindType, Type: catalog.TypeName("double")}, "x", true)
		require.Error(t, err)
		assert.ErrorIs(t, err, operrors.ErrCatalogDefect)
	})

	t.Run("schema rule without a store", func(t *testing.T) {
		_, err := applyOne(catalog.Rule{Kind: catalog.KindSchema}, map[string]any{}, true)
		require.Error(t, err)
		assert.ErrorIs(t, err, operrors.ErrCatalogDefect)
	})
}
