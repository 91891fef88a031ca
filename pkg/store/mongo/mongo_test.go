package mongo

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/kintree/pkg/family"
	"github.com/matzehuels/kintree/pkg/store"
	"github.com/matzehuels/kintree/pkg/store/storetest"
)

func TestConformance(t *testing.T) {
	uri := os.Getenv("KINTREE_TEST_MONGO_URI")
	if uri == "" {
		t.Skip("KINTREE_TEST_MONGO_URI not set")
	}
	n := 0
	storetest.Run(t, func(t *testing.T) store.Store {
		n++
		ctx := context.Background()
		db := fmt.Sprintf("kintree_test_%d_%d", time.Now().UnixNano(), n)
		s, err := Open(ctx, uri, db)
		require.NoError(t, err)
		t.Cleanup(func() {
			_ = s.client.Database(db).Drop(ctx)
			s.Close()
		})
		return s
	})
}

func TestPersonDocRoundTrip(t *testing.T) {
	birth := time.Date(1990, time.January, 2, 0, 0, 0, 0, time.UTC)
	p := family.Person{
		ID:        "p1",
		FirstName: "Ada",
		BirthDate: &birth,
		Alive:     true,
		Gender:    family.GenderFemale,
		Tags:      []string{"a"},
		Position:  &family.Position{X: 3, Y: 4},
	}
	d := toPersonDoc("t1", 42, p)
	assert.Equal(t, "t1", d.TreeID)
	assert.Equal(t, int64(42), d.Seq)
	assert.Equal(t, p, d.person())
}
