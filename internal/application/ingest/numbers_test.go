package ingest

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFlexDecimal(t *testing.T) {
	cases := []struct {
		name      string
		input     string
		want      string
		malformed bool
	}{
		{name: "json number", input: `{"v": 54.49}`, want: "54.49"},
		{name: "numeric string", input: `{"v": "54.49"}`, want: "54.49"},
		{name: "integer", input: `{"v": 100}`, want: "100"},
		{name: "null", input: `{"v": null}`, want: "0"},
		{name: "absent", input: `{}`, want: "0"},
		{name: "empty string", input: `{"v": ""}`, want: "0"},
		{name: "padded numeric string", input: `{"v": " 54.49 "}`, want: "54.49"},
		{name: "garbage string", input: `{"v": "abc"}`, want: "0", malformed: true},
		{name: "boolean", input: `{"v": true}`, want: "0", malformed: true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var target struct {
				V FlexDecimal `json:"v"`
			}
			require.NoError(t, json.Unmarshal([]byte(tc.input), &target))
			assert.True(t, target.V.Value.Equal(decimal.RequireFromString(tc.want)),
				"got %s", target.V.Value)
			assert.Equal(t, tc.malformed, target.V.Malformed)
		})
	}
}

func TestFlexInt(t *testing.T) {
	cases := []struct {
		name      string
		input     string
		want      int64
		malformed bool
	}{
		{name: "json number", input: `{"v": 7}`, want: 7},
		{name: "numeric string", input: `{"v": "7"}`, want: 7},
		{name: "whole float", input: `{"v": 7.0}`, want: 7},
		{name: "null", input: `{"v": null}`, want: 0},
		{name: "garbage", input: `{"v": "seven"}`, want: 0, malformed: true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var target struct {
				V FlexInt `json:"v"`
			}
			require.NoError(t, json.Unmarshal([]byte(tc.input), &target))
			assert.Equal(t, tc.want, target.V.Value)
			assert.Equal(t, tc.malformed, target.V.Malformed)
		})
	}
}

func TestFlexTokensRejectBrokenQuoting(t *testing.T) {
	// Unmarshalers can be handed a token directly, so a stray quote
	// inside must flag the value instead of silently normalizing it
	broken := []byte(`"12"34"`)

	var d FlexDecimal
	require.NoError(t, d.UnmarshalJSON(broken))
	assert.True(t, d.Malformed)
	assert.True(t, d.Value.IsZero())

	var i FlexInt
	require.NoError(t, i.UnmarshalJSON(broken))
	assert.True(t, i.Malformed)
	assert.Equal(t, int64(0), i.Value)

	var id FlexID
	require.NoError(t, id.UnmarshalJSON(broken))
	assert.Equal(t, "", id.String())
}

func TestFlexID(t *testing.T) {
	cases := []struct {
		name  string
		input string
		want  string
	}{
		{name: "number", input: `{"v": 6514532322}`, want: "6514532322"},
		{name: "string", input: `{"v": "6514532322"}`, want: "6514532322"},
		{name: "null", input: `{"v": null}`, want: ""},
		{name: "absent", input: `{}`, want: ""},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var target struct {
				V FlexID `json:"v"`
			}
			require.NoError(t, json.Unmarshal([]byte(tc.input), &target))
			assert.Equal(t, tc.want, target.V.String())
		})
	}
}
