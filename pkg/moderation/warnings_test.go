package moderation

import (
	"math/rand"
	"testing"
	"time"

	"github.com/PancyStudios/PancyModGo/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var epoch = time.Unix(1_700_000_000, 0)

func expiring(id string, points int, expires time.Time) models.Warn {
	return models.Warn{ID: id, Reason: id, Points: points, ExpiresAt: expires.Unix()}
}

func permanent(id string, points int) models.Warn {
	return models.Warn{ID: id, Reason: id, Points: points, Permanent: true}
}

func TestWarningListActivePoints(t *testing.T) {
	list := WarningList{}.
		Add(permanent("a", 2)).
		Add(expiring("b", 3, epoch.Add(time.Hour))).
		Add(expiring("c", 5, epoch)).
		Add(expiring("d", 7, epoch.Add(-time.Minute)))

	assert.Equal(t, 5, list.ActivePoints(epoch))
	assert.Equal(t, 17, list.ActivePoints(epoch.Add(-2*time.Minute)))
	assert.Equal(t, 2, list.ActivePoints(epoch.Add(time.Hour)))
}

func TestWarningListActivePointsAnyOrder(t *testing.T) {
	warns := []models.Warn{
		permanent("a", 1),
		expiring("b", 2, epoch.Add(time.Second)),
		expiring("c", 4, epoch.Add(-time.Second)),
		permanent("d", 8),
		expiring("e", 16, epoch.Add(time.Hour)),
	}
	want := 1 + 2 + 8 + 16

	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 20; i++ {
		rng.Shuffle(len(warns), func(i, j int) { warns[i], warns[j] = warns[j], warns[i] })
		var list WarningList
		for _, w := range warns {
			list = list.Add(w)
		}
		require.Equal(t, want, list.ActivePoints(epoch))
	}
}

func TestWarningListPruneIdempotent(t *testing.T) {
	list := WarningList{
		permanent("a", 1),
		expiring("b", 1, epoch),
		expiring("c", 1, epoch.Add(time.Second)),
	}

	once := list.Prune(epoch)
	twice := once.Prune(epoch)

	assert.Equal(t, once, twice)
	assert.Len(t, once, 2)
	assert.Equal(t, "a", once[0].ID)
	assert.Equal(t, "c", once[1].ID)
}

func TestWarningListPruneMatchesActivePoints(t *testing.T) {
	list := WarningList{
		permanent("a", 3),
		expiring("b", 4, epoch),
		expiring("c", 5, epoch.Add(time.Nanosecond)),
	}
	var sum int
	for _, w := range list.Prune(epoch) {
		sum += w.Points
	}
	assert.Equal(t, sum, list.ActivePoints(epoch))
}

func TestWarningExpiryBoundary(t *testing.T) {
	// a 3 point "spam" warning lasting one hour
	w := expiring("spam", 3, epoch.Add(3600*time.Second))
	list := WarningList{w}

	assert.Equal(t, 3, list.ActivePoints(epoch.Add(3599*time.Second)))
	assert.Equal(t, 0, list.ActivePoints(epoch.Add(3601*time.Second)))
}

func TestWarningListPartition(t *testing.T) {
	list := WarningList{
		permanent("a", 1),
		expiring("b", 1, epoch.Add(-time.Hour)),
		expiring("c", 1, epoch.Add(time.Hour)),
	}

	active, expired := list.Partition(epoch)

	assert.Equal(t, []string{"a", "c"}, ids(active))
	assert.Equal(t, []string{"b"}, ids(expired))
	assert.Len(t, list, 3, "partition must not modify the list")
}

func TestWarningListRemove(t *testing.T) {
	list := WarningList{permanent("a", 1), permanent("b", 2), permanent("c", 3)}

	out, removed, ok := list.Remove("b")
	require.True(t, ok)
	assert.Equal(t, "b", removed.ID)
	assert.Equal(t, []string{"a", "c"}, ids(out))
	assert.Equal(t, []string{"a", "b", "c"}, ids(list))

	same, _, ok := list.Remove("missing")
	assert.False(t, ok)
	assert.Equal(t, list, same)
}

func TestWarningListFind(t *testing.T) {
	list := WarningList{permanent("a", 1), permanent("b", 2)}

	w, ok := list.Find("b")
	require.True(t, ok)
	assert.Equal(t, 2, w.Points)

	_, ok = list.Find("z")
	assert.False(t, ok)
}

func TestEmptyWarningList(t *testing.T) {
	var list WarningList
	assert.Equal(t, 0, list.ActivePoints(epoch))
	assert.Empty(t, list.Prune(epoch))
}

func ids(list WarningList) []string {
	out := make([]string, 0, len(list))
	for _, w := range list {
		out = append(out, w.ID)
	}
	return out
}
