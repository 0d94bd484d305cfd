package services

import (
	"math/rand"
	"testing"

	"campus-canteen/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	idli  = models.MenuItem{ID: "a", Name: "Idli", Price: 40, Category: "Breakfast", IsAvailable: true}
	curry = models.MenuItem{ID: "b", Name: "Chicken Curry", Price: 180, Category: "Main Course", IsAvailable: true}
	thali = models.MenuItem{ID: "t", Name: "Veg Thali", Price: 100, Category: "Main Course", IsAvailable: true}
)

func TestAddAddRemoveScenario(t *testing.T) {
	s := NewStore()
	s.AddToCart(idli)
	s.AddToCart(idli)
	s.RemoveFromCart("a")

	assert.Equal(t, 1, s.CartQuantity("a"))
	assert.Equal(t, int64(40), s.CartTotal())
}

func TestRemoveFromEmptyStoreIsNoop(t *testing.T) {
	s := NewStore()
	events := 0
	s.Subscribe(func(Event) { events++ })

	s.RemoveFromCart("z")

	assert.Equal(t, 0, s.CartQuantity("z"))
	assert.Empty(t, s.Lines())
	assert.Equal(t, int64(0), s.CartTotal())
	assert.Zero(t, events)
}

func TestCartTotalFollowsQuantity(t *testing.T) {
	s := NewStore()
	s.AddToCart(thali)
	s.AddToCart(thali)
	assert.Equal(t, int64(200), s.CartTotal())

	s.RemoveFromCart("t")
	assert.Equal(t, int64(100), s.CartTotal())

	s.RemoveFromCart("t")
	assert.Equal(t, int64(0), s.CartTotal())
	assert.Empty(t, s.Lines(), "a line reaching zero is removed")
}

func TestCartKeepsAddTimePrice(t *testing.T) {
	s := NewStore()
	s.AddToCart(idli)

	repriced := idli
	repriced.Price = 55
	s.AddToCart(repriced)
	s.SetCartQuantity(repriced, 3)

	lines := s.Lines()
	require.Len(t, lines, 1)
	assert.Equal(t, int64(40), lines[0].Price)
	assert.Equal(t, int64(120), s.CartTotal())
}

func TestSetCartQuantity(t *testing.T) {
	s := NewStore()

	s.SetCartQuantity(curry, 3)
	assert.Equal(t, 3, s.CartQuantity("b"))

	s.SetCartQuantity(curry, 1)
	assert.Equal(t, 1, s.CartQuantity("b"))

	s.SetCartQuantity(curry, 0)
	assert.Equal(t, 0, s.CartQuantity("b"))
	assert.Empty(t, s.Lines())

	s.SetCartQuantity(curry, -4)
	assert.Empty(t, s.Lines(), "negative quantity on an absent line does nothing")
}

func TestSetCartQuantityMatchesRepeatedSteps(t *testing.T) {
	direct := NewStore()
	stepped := NewStore()

	direct.SetCartQuantity(idli, 4)
	for i := 0; i < 4; i++ {
		stepped.AddToCart(idli)
	}
	assert.Equal(t, stepped.Lines(), direct.Lines())

	direct.SetCartQuantity(idli, 1)
	for i := 0; i < 3; i++ {
		stepped.RemoveFromCart(idli.ID)
	}
	assert.Equal(t, stepped.Lines(), direct.Lines())
}

func TestLinesKeepInsertionOrder(t *testing.T) {
	s := NewStore()
	s.AddToCart(curry)
	s.AddToCart(idli)
	s.AddToCart(thali)
	s.AddToCart(curry)
	s.RemoveFromCart("a")

	lines := s.Lines()
	require.Len(t, lines, 2)
	assert.Equal(t, "b", lines[0].ItemID)
	assert.Equal(t, 2, lines[0].Quantity)
	assert.Equal(t, "t", lines[1].ItemID)
	assert.Equal(t, 3, s.ItemCount())
}

func TestAddItemMissingFromCatalog(t *testing.T) {
	s := NewStore()
	s.AddToCart(models.MenuItem{ID: "ghost"})

	assert.Equal(t, 1, s.CartQuantity("ghost"))
	assert.Equal(t, int64(0), s.CartTotal())
}

func TestToggleFavoriteIsInvolution(t *testing.T) {
	s := NewStore()
	s.ToggleFavorite(curry)
	before := s.Favorites()

	assert.True(t, s.ToggleFavorite(idli))
	assert.True(t, s.IsFavorite("a"))
	assert.False(t, s.ToggleFavorite(idli))
	assert.False(t, s.IsFavorite("a"))

	assert.Equal(t, before, s.Favorites())
	assert.Equal(t, []string{"b"}, s.Favorites())
}

func TestClearKeepsFavorites(t *testing.T) {
	s := NewStore()
	s.AddToCart(idli)
	s.ToggleFavorite(idli)

	s.Clear()

	assert.Empty(t, s.Lines())
	assert.True(t, s.IsFavorite("a"))
}

// Random sequences of adds and removes keep quantities equal to adds minus
// removes clamped at zero, and never produce two lines for one id.
func TestCartInvariantsUnderRandomOperations(t *testing.T) {
	items := []models.MenuItem{idli, curry, thali}
	rng := rand.New(rand.NewSource(42))

	for round := 0; round < 50; round++ {
		s := NewStore()
		want := map[string]int{}
		for step := 0; step < 200; step++ {
			item := items[rng.Intn(len(items))]
			if rng.Intn(2) == 0 {
				s.AddToCart(item)
				want[item.ID]++
			} else {
				s.RemoveFromCart(item.ID)
				if want[item.ID] > 0 {
					want[item.ID]--
				}
			}

			seen := map[string]bool{}
			var total int64
			for _, line := range s.Lines() {
				require.False(t, seen[line.ItemID], "duplicate line for %s", line.ItemID)
				seen[line.ItemID] = true
				require.Positive(t, line.Quantity)
				total += line.Subtotal()
			}
			for _, it := range items {
				require.Equal(t, want[it.ID], s.CartQuantity(it.ID))
			}
			require.Equal(t, total, s.CartTotal())
		}
	}
}

func TestSubscribersSeeCommittedState(t *testing.T) {
	s := NewStore()
	var got []Event
	var seenQty []int
	unsub := s.Subscribe(func(e Event) {
		got = append(got, e)
		seenQty = append(seenQty, s.CartQuantity("a"))
	})
	other := 0
	s.Subscribe(func(Event) { other++ })

	s.AddToCart(idli)
	s.AddToCart(idli)
	s.RemoveFromCart("a")
	s.ToggleFavorite(idli)
	s.SetCartQuantity(idli, 1) // unchanged, no event

	require.Len(t, got, 4)
	assert.Equal(t, []int{1, 2, 1, 1}, seenQty)
	assert.Equal(t, Event{Kind: EventCartAdded, ItemID: "a", Quantity: 2}, got[1])
	assert.Equal(t, Event{Kind: EventCartRemoved, ItemID: "a", Quantity: 1}, got[2])
	assert.Equal(t, Event{Kind: EventFavoriteAdded, ItemID: "a", Favorite: true}, got[3])
	assert.Equal(t, 4, other, "every subscriber is notified")

	unsub()
	unsub()
	s.AddToCart(idli)
	assert.Len(t, got, 4)
	assert.Equal(t, 5, other)
}

func TestSnapshotRestoreRepairsInvariants(t *testing.T) {
	s := NewStore()
	s.Restore(Snapshot{
		Lines: []models.CartLine{
			{ItemID: "a", Name: "Idli", Price: 40, Quantity: 2},
			{ItemID: "b", Name: "Chicken Curry", Price: 180, Quantity: 0},
			{ItemID: "a", Name: "Idli", Price: 45, Quantity: 1},
			{ItemID: "t", Name: "Veg Thali", Price: 100, Quantity: -1},
		},
		Favorites: []string{"b", "a", "b", ""},
	})

	lines := s.Lines()
	require.Len(t, lines, 1)
	assert.Equal(t, 3, lines[0].Quantity)
	assert.Equal(t, int64(120), s.CartTotal())
	assert.Equal(t, []string{"a", "b"}, s.Favorites())

	snap := s.Snapshot()
	other := NewStore()
	other.Restore(snap)
	assert.Equal(t, snap, other.Snapshot())
}
