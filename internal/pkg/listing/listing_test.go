package listing

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ManuelReschke/PayFox/app/models"
	"github.com/ManuelReschke/PayFox/internal/pkg/apierror"
	"github.com/ManuelReschke/PayFox/internal/pkg/params"
)

// five charges, newest first: ch_4 .. ch_0; even ones belong to cus_even
func fixture() []*models.Charge {
	out := make([]*models.Charge, 0, 5)
	for i := 4; i >= 0; i-- {
		c := &models.Charge{ID: fmt.Sprintf("ch_%d", i), Created: int64(i)}
		if i%2 == 0 {
			c.Customer = models.String("cus_even")
		}
		out = append(out, c)
	}
	return out
}

func retrieverFor(all []*models.Charge) func(id, param string) error {
	return func(id, param string) error {
		for _, c := range all {
			if c.ID == id {
				return nil
			}
		}
		return apierror.ResourceMissing("charge", id, param)
	}
}

func ids(page Page[*models.Charge]) []string {
	out := make([]string, 0, len(page.Data))
	for _, c := range page.Data {
		out = append(out, c.ID)
	}
	return out
}

func TestPaginate_NoLimitReturnsEverything(t *testing.T) {
	all := fixture()
	page, err := Paginate(all, nil, Query{}, retrieverFor(all))
	require.NoError(t, err)
	assert.Equal(t, []string{"ch_4", "ch_3", "ch_2", "ch_1", "ch_0"}, ids(page))
	assert.False(t, page.HasMore)
}

func TestPaginate_Limit(t *testing.T) {
	all := fixture()
	page, err := Paginate(all, nil, Query{Limit: 2}, retrieverFor(all))
	require.NoError(t, err)
	assert.Equal(t, []string{"ch_4", "ch_3"}, ids(page))
	assert.True(t, page.HasMore)

	page, err = Paginate(all, nil, Query{Limit: 5}, retrieverFor(all))
	require.NoError(t, err)
	assert.False(t, page.HasMore)
}

func TestPaginate_StartingAfter(t *testing.T) {
	all := fixture()
	page, err := Paginate(all, nil, Query{Limit: 2, StartingAfter: "ch_3"}, retrieverFor(all))
	require.NoError(t, err)
	assert.Equal(t, []string{"ch_2", "ch_1"}, ids(page))
	assert.True(t, page.HasMore)

	page, err = Paginate(all, nil, Query{StartingAfter: "ch_0"}, retrieverFor(all))
	require.NoError(t, err)
	assert.Empty(t, page.Data)
	assert.False(t, page.HasMore)
}

func TestPaginate_EndingBefore(t *testing.T) {
	all := fixture()
	page, err := Paginate(all, nil, Query{Limit: 2, EndingBefore: "ch_1"}, retrieverFor(all))
	require.NoError(t, err)
	assert.Equal(t, []string{"ch_3", "ch_2"}, ids(page))
	assert.True(t, page.HasMore)

	page, err = Paginate(all, nil, Query{EndingBefore: "ch_2"}, retrieverFor(all))
	require.NoError(t, err)
	assert.Equal(t, []string{"ch_4", "ch_3"}, ids(page))
	assert.False(t, page.HasMore)
}

func TestPaginate_FilterBeforeCursor(t *testing.T) {
	all := fixture()
	even := func(c *models.Charge) bool { return models.StringValue(c.Customer) == "cus_even" }

	page, err := Paginate(all, even, Query{}, retrieverFor(all))
	require.NoError(t, err)
	assert.Equal(t, []string{"ch_4", "ch_2", "ch_0"}, ids(page))

	// ch_3 is filtered out but still positions the cursor
	page, err = Paginate(all, even, Query{StartingAfter: "ch_3"}, retrieverFor(all))
	require.NoError(t, err)
	assert.Equal(t, []string{"ch_2", "ch_0"}, ids(page))
}

func TestPaginate_UnknownCursor(t *testing.T) {
	all := fixture()
	_, err := Paginate(all, nil, Query{StartingAfter: "ch_nope"}, retrieverFor(all))
	require.Error(t, err)
	apiErr := apierror.From(err)
	assert.Equal(t, 404, apiErr.Status)
	assert.Equal(t, "starting_after", apiErr.Param)

	_, err = Paginate(all, nil, Query{EndingBefore: "ch_nope"}, retrieverFor(all))
	require.Error(t, err)
	assert.Equal(t, "ending_before", apierror.From(err).Param)
}

func TestPaginate_RoundTrip(t *testing.T) {
	all := fixture()
	var walked []string
	q := Query{Limit: 1}
	for {
		page, err := Paginate(all, nil, q, retrieverFor(all))
		require.NoError(t, err)
		walked = append(walked, ids(page)...)
		if !page.HasMore {
			break
		}
		q.StartingAfter = page.Data[len(page.Data)-1].ID
	}

	full, err := Paginate(all, nil, Query{}, retrieverFor(all))
	require.NoError(t, err)
	assert.Equal(t, ids(full), walked)
}

func TestParseQuery(t *testing.T) {
	p, err := params.Parse("limit=3&starting_after=ch_1")
	require.NoError(t, err)
	q, err := ParseQuery(p)
	require.NoError(t, err)
	assert.Equal(t, Query{Limit: 3, StartingAfter: "ch_1"}, q)

	for _, raw := range []string{"limit=0", "limit=101", "limit=abc", "starting_after=a&ending_before=b"} {
		p, err := params.Parse(raw)
		require.NoError(t, err)
		_, err = ParseQuery(p)
		assert.Error(t, err, raw)
	}
}
