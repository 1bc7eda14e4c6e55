package twin

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarshalJSON(t *testing.T) {
	cases := []struct {
		name  string
		props map[string]any
		want  string
	}{
		{
			name: "all fields",
			props: map[string]any{
				"key1":                 "value1",
				LastUpdatedKey:         sampleTimestamp,
				LastUpdatedVersionKey:  10,
				LastUpdatedByKey:       "testConfig",
				LastUpdatedByDigestKey: "637570515479675333",
			},
			want: `{"$lastUpdated":"2017-09-21T02:07:44.238Z","$lastUpdatedVersion":10,"$lastUpdatedBy":"testConfig","$lastUpdatedByDigest":"637570515479675333"}`,
		},
		{
			name:  "no date",
			props: map[string]any{"key1": "value1", LastUpdatedVersionKey: 10},
			want:  `{"$lastUpdatedVersion":10}`,
		},
		{
			name:  "no version",
			props: map[string]any{LastUpdatedKey: sampleTimestamp},
			want:  `{"$lastUpdated":"2017-09-21T02:07:44.238Z"}`,
		},
		{
			name:  "no writer",
			props: map[string]any{LastUpdatedKey: sampleTimestamp, LastUpdatedVersionKey: 10},
			want:  `{"$lastUpdated":"2017-09-21T02:07:44.238Z","$lastUpdatedVersion":10}`,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			m, err := TryExtractFromMap(tc.props)
			require.NoError(t, err)
			require.NotNil(t, m)

			got, err := json.Marshal(m)
			require.NoError(t, err)
			assert.Equal(t, tc.want, string(got))
		})
	}
}

func TestMarshalJSONFromConstructor(t *testing.T) {
	m, err := NewMetadata(sampleTimestamp, int64Ptr(5), "", "")
	require.NoError(t, err)
	got, err := json.Marshal(m)
	require.NoError(t, err)
	assert.Equal(t, `{"$lastUpdated":"2017-09-21T02:07:44.238Z","$lastUpdatedVersion":5}`, string(got))
}

func TestMarshalJSONEmpty(t *testing.T) {
	got, err := json.Marshal(Metadata{})
	require.NoError(t, err)
	assert.Equal(t, `{}`, string(got))
}

func TestStringIsPrettyJSON(t *testing.T) {
	m, err := NewMetadata(sampleTimestamp, int64Ptr(10), "testConfig", "637570515479675333")
	require.NoError(t, err)

	s := m.String()
	assert.Contains(t, s, "\n  ")
	assert.JSONEq(t, `{"$lastUpdated":"2017-09-21T02:07:44.238Z","$lastUpdatedVersion":10, "$lastUpdatedBy":"testConfig", "$lastUpdatedByDigest":"637570515479675333"}`, s)
}

func TestUnmarshalJSON(t *testing.T) {
	var m Metadata
	require.NoError(t, json.Unmarshal([]byte(`{"$lastUpdated":"2017-09-21T02:07:44.238Z","$lastUpdatedVersion":9007199254740993,"$lastUpdatedByDigest":637570515479675333}`), &m))

	v, _ := m.LastUpdatedVersion()
	assert.Equal(t, int64(9007199254740993), v)
	digest, _ := m.LastUpdatedByDigest()
	assert.Equal(t, "637570515479675333", digest)

	var empty Metadata
	require.NoError(t, json.Unmarshal([]byte(`{"other":1}`), &empty))
	assert.Equal(t, Metadata{}, empty)

	assert.ErrorIs(t, json.Unmarshal([]byte(`{"$lastUpdatedVersion":"x"}`), &m), ErrFormat)
}

func TestTimestampRoundTrip(t *testing.T) {
	for _, in := range []string{sampleTimestamp, "2024-02-29T23:59:59.999Z", "1970-01-01T00:00:00.000Z", "-0001-11-30T00:00:00.000Z", "10000-01-01T00:00:00.000Z"} {
		ts, err := ParseTimestamp(in)
		require.NoError(t, err)
		assert.Equal(t, in, FormatTimestamp(ts))
	}
}

func TestParseTimestampVariants(t *testing.T) {
	cases := map[string]time.Time{
		"2017-09-21T02:07:44Z":            time.Date(2017, 9, 21, 2, 7, 44, 0, time.UTC),
		"2017-09-21T02:07:44.2383838Z":    time.Date(2017, 9, 21, 2, 7, 44, 238383800, time.UTC),
		"2017-09-21T04:07:44.238+02:00":   time.Date(2017, 9, 21, 2, 7, 44, 238_000_000, time.UTC),
		"2017-09-20T23:07:44.238-03:00":   time.Date(2017, 9, 21, 2, 7, 44, 238_000_000, time.UTC),
		"2017-09-21T02:07:44.1234567891Z": time.Date(2017, 9, 21, 2, 7, 44, 123456789, time.UTC),
		"2017-13-01T00:00:00.000Z":        time.Date(2018, 1, 1, 0, 0, 0, 0, time.UTC),
		"+2017-09-21T02:07:44Z":           time.Date(2017, 9, 21, 2, 7, 44, 0, time.UTC),
	}
	for in, want := range cases {
		t.Run(in, func(t *testing.T) {
			got, err := ParseTimestamp(in)
			require.NoError(t, err)
			assert.True(t, want.Equal(got), "got %s, want %s", got, want)
		})
	}
}
