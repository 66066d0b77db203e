// Copyright 2024 Upbound Inc
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package expr

import (
	"testing"

	"github.com/go-logr/logr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lareferencia/lrvalidate/internal/rules"
)

func fieldSource(values map[string][]string) FieldSource {
	return func(path string) []string { return values[path] }
}

func TestParseAndEvalEquals(t *testing.T) {
	node, err := Parse(`dc.type=='article'`)
	require.NoError(t, err)

	fields := fieldSource(map[string][]string{"dc.type": {"article"}})
	assert.True(t, Eval(node, rules.OneOrMore, fields, logr.Discard()))

	fields = fieldSource(map[string][]string{"dc.type": {"book"}})
	assert.False(t, Eval(node, rules.OneOrMore, fields, logr.Discard()))
}

func TestParseAndEvalMatches(t *testing.T) {
	node, err := Parse(`dc.identifier=%'^10\.[0-9]+/.*'`)
	require.NoError(t, err)

	fields := fieldSource(map[string][]string{"dc.identifier": {"10.1234/abc"}})
	assert.True(t, Eval(node, rules.OneOrMore, fields, logr.Discard()))

	fields = fieldSource(map[string][]string{"dc.identifier": {"not-a-doi"}})
	assert.False(t, Eval(node, rules.OneOrMore, fields, logr.Discard()))
}

func TestAndOrPrecedence(t *testing.T) {
	// OR binds loosest: a==1 AND b==2 OR c==3 == (a AND b) OR c
	node, err := Parse(`a=='1' AND b=='2' OR c=='3'`)
	require.NoError(t, err)

	fields := fieldSource(map[string][]string{
		"a": {"0"}, "b": {"0"}, "c": {"3"},
	})
	assert.True(t, Eval(node, rules.OneOrMore, fields, logr.Discard()))

	fields = fieldSource(map[string][]string{
		"a": {"1"}, "b": {"2"}, "c": {"0"},
	})
	assert.True(t, Eval(node, rules.OneOrMore, fields, logr.Discard()))

	fields = fieldSource(map[string][]string{
		"a": {"1"}, "b": {"0"}, "c": {"0"},
	})
	assert.False(t, Eval(node, rules.OneOrMore, fields, logr.Discard()))
}

func TestParenthesesOverridePrecedence(t *testing.T) {
	node, err := Parse(`a=='1' AND (b=='2' OR c=='3')`)
	require.NoError(t, err)

	fields := fieldSource(map[string][]string{"a": {"1"}, "b": {"0"}, "c": {"3"}})
	assert.True(t, Eval(node, rules.OneOrMore, fields, logr.Discard()))

	fields = fieldSource(map[string][]string{"a": {"1"}, "b": {"0"}, "c": {"0"}})
	assert.False(t, Eval(node, rules.OneOrMore, fields, logr.Discard()))
}

func TestNotIsUnaryAndBindsTightest(t *testing.T) {
	node, err := Parse(`NOT a=='1' AND b=='2'`)
	require.NoError(t, err)

	fields := fieldSource(map[string][]string{"a": {"0"}, "b": {"2"}})
	assert.True(t, Eval(node, rules.OneOrMore, fields, logr.Discard()))

	fields = fieldSource(map[string][]string{"a": {"1"}, "b": {"2"}})
	assert.False(t, Eval(node, rules.OneOrMore, fields, logr.Discard()))
}

func TestQuantifierAppliesPerAtom(t *testing.T) {
	node, err := Parse(`dc.subject=='keyword'`)
	require.NoError(t, err)

	fields := fieldSource(map[string][]string{"dc.subject": {"keyword", "other"}})
	assert.True(t, Eval(node, rules.OneOrMore, fields, logr.Discard()))
	assert.False(t, Eval(node, rules.All, fields, logr.Discard()))
}

func TestEmptyFieldIsInvalidForOneOrMore(t *testing.T) {
	node, err := Parse(`dc.title=='x'`)
	require.NoError(t, err)

	fields := fieldSource(map[string][]string{})
	assert.False(t, Eval(node, rules.OneOrMore, fields, logr.Discard()))
	assert.True(t, Eval(node, rules.ZeroOrMore, fields, logr.Discard()))
}

func TestBadRegexEvaluatesToFalseWithoutPanicking(t *testing.T) {
	node, err := Parse(`dc.identifier=%'[unterminated'`)
	require.NoError(t, err)

	fields := fieldSource(map[string][]string{"dc.identifier": {"anything"}})
	assert.False(t, Eval(node, rules.OneOrMore, fields, logr.Discard()))
}

func TestParseErrors(t *testing.T) {
	cases := []string{
		"",
		"a=='unterminated",
		"a=='1' AND",
		"(a=='1'",
		"a=='1') ",
		"a~'1'",
	}
	for _, c := range cases {
		_, err := Parse(c)
		assert.Error(t, err, c)
	}
}
