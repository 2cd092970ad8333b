package quotes

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseMetadata(t *testing.T) {
	meta, err := ParseMetadata(`{'job_type': 'office manager', 'order_size': 'small', 'event_type': 'party'}`)
	require.NoError(t, err)
	require.Equal(t, Metadata{JobType: "office manager", OrderSize: "small", EventType: "party"}, meta)

	meta, err = ParseMetadata(`{"job_type": "teacher's aide", 'order_size': None, 'attendees': 40,}`)
	require.NoError(t, err)
	require.Equal(t, "teacher's aide", meta.JobType)
	require.Empty(t, meta.OrderSize)
	require.Empty(t, meta.EventType)

	meta, err = ParseMetadata(`{'job_type': 'it\'s fine'}`)
	require.NoError(t, err)
	require.Equal(t, "it's fine", meta.JobType)

	meta, err = ParseMetadata("")
	require.NoError(t, err)
	require.Equal(t, Metadata{}, meta)

	for _, bad := range []string{`job_type: x`, `{'job_type' 'x'}`, `{'job_type': 'x'`, `{'a': 'b'} extra`} {
		_, err := ParseMetadata(bad)
		require.ErrorIs(t, err, ErrMalformedMetadata, bad)
	}
}

func TestLoadCSV(t *testing.T) {
	requests, err := LoadRequests(strings.NewReader("mood,job,need_size,event,response\n" +
		"happy,teacher,small,party,\"I need 200 sheets of glossy paper, please\"\n" +
		"calm,manager,large,conference,Napkins for 500 guests\n"))
	require.NoError(t, err)
	require.Equal(t, []Request{
		{ID: 1, Response: "I need 200 sheets of glossy paper, please"},
		{ID: 2, Response: "Napkins for 500 guests"},
	}, requests)

	quotes, err := LoadQuotes(strings.NewReader("request_metadata,total_amount,quote_explanation\n"+
		"\"{'job_type': 'teacher', 'order_size': 'small', 'event_type': 'party'}\",60,Glossy paper at bulk rate\n"+
		"\"{'job_type': 'manager', 'order_size': 'large', 'event_type': 'conference'}\",125.50,Napkins discounted\n"+
		"\"{}\",10,Orphan quote\n"), "2025-01-01")
	require.NoError(t, err)
	require.Len(t, quotes, 3)
	require.Equal(t, int64(2), quotes[1].RequestID)
	require.Equal(t, "125.5", quotes[1].TotalAmount.String())
	require.Equal(t, "conference", quotes[1].EventType)
	require.Equal(t, "2025-01-01", quotes[0].OrderDate)

	corpus, dropped := NewCorpus(requests, quotes)
	require.Equal(t, 1, dropped)
	require.Len(t, corpus.Quotes, 2)

	_, err = LoadQuotes(strings.NewReader("total_amount,quote_explanation\nabc,x\n"), "2025-01-01")
	require.ErrorIs(t, err, ErrMalformedCorpus)
	_, err = LoadRequests(strings.NewReader("text\nhello\n"))
	require.ErrorIs(t, err, ErrMalformedCorpus)
	_, err = LoadQuotes(strings.NewReader("total_amount,quote_explanation\n1,x\n"), "Jan 1")
	require.Error(t, err)
}
