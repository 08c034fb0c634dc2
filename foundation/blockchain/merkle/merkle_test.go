package merkle_test

import (
	"crypto/sha256"
	"testing"

	"github.com/rblocklabs/rblock/foundation/blockchain/merkle"
)

// Success and failure markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

// =============================================================================

// payload is a simple hashable value for exercising the tree.
type payload struct {
	Data string
}

func (p payload) Hash() ([]byte, error) {
	h := sha256.Sum256([]byte(p.Data))
	return h[:], nil
}

func (p payload) Equals(other payload) bool {
	return p.Data == other.Data
}

// =============================================================================

func Test_Tree(t *testing.T) {
	type table struct {
		name   string
		values []payload
	}

	tt := []table{
		{name: "single", values: []payload{{"a"}}},
		{name: "even", values: []payload{{"a"}, {"b"}, {"c"}, {"d"}}},
		{name: "odd", values: []payload{{"a"}, {"b"}, {"c"}}},
	}

	t.Log("Given the need to build and verify merkle trees.")
	{
		for testID, tst := range tt {
			t.Logf("\tTest %d:\tWhen handling %d values.", testID, len(tst.values))
			{
				f := func(t *testing.T) {
					tree, err := merkle.NewTree(tst.values)
					if err != nil {
						t.Fatalf("\t%s\tTest %d:\tShould be able to build the tree: %s", failed, testID, err)
					}
					t.Logf("\t%s\tTest %d:\tShould be able to build the tree.", success, testID)

					if err := tree.Verify(); err != nil {
						t.Fatalf("\t%s\tTest %d:\tShould be able to verify the tree: %s", failed, testID, err)
					}
					t.Logf("\t%s\tTest %d:\tShould be able to verify the tree.", success, testID)

					values := tree.Values()
					if len(values) != len(tst.values) {
						t.Fatalf("\t%s\tTest %d:\tShould get the original values back: got %d, exp %d", failed, testID, len(values), len(tst.values))
					}
					for i := range values {
						if !values[i].Equals(tst.values[i]) {
							t.Fatalf("\t%s\tTest %d:\tShould preserve the value order.", failed, testID)
						}
					}
					t.Logf("\t%s\tTest %d:\tShould get the original values back in order.", success, testID)
				}

				t.Run(tst.name, f)
			}
		}
	}
}

func Test_RootSensitivity(t *testing.T) {
	t.Log("Given the need for the root to commit to content and order.")
	{
		base := []payload{{"a"}, {"b"}, {"c"}, {"d"}}

		tree, err := merkle.NewTree(base)
		if err != nil {
			t.Fatalf("\t%s\tShould be able to build the base tree: %s", failed, err)
		}
		root := tree.RootHex()

		same, err := merkle.NewTree([]payload{{"a"}, {"b"}, {"c"}, {"d"}})
		if err != nil {
			t.Fatalf("\t%s\tShould be able to rebuild the same tree: %s", failed, err)
		}
		if same.RootHex() != root {
			t.Fatalf("\t%s\tShould get the same root for the same values.", failed)
		}
		t.Logf("\t%s\tShould get the same root for the same values.", success)

		reordered, err := merkle.NewTree([]payload{{"b"}, {"a"}, {"c"}, {"d"}})
		if err != nil {
			t.Fatalf("\t%s\tShould be able to build the reordered tree: %s", failed, err)
		}
		if reordered.RootHex() == root {
			t.Fatalf("\t%s\tShould get a different root when values are reordered.", failed)
		}
		t.Logf("\t%s\tShould get a different root when values are reordered.", success)

		changed, err := merkle.NewTree([]payload{{"a"}, {"b"}, {"c"}, {"e"}})
		if err != nil {
			t.Fatalf("\t%s\tShould be able to build the changed tree: %s", failed, err)
		}
		if changed.RootHex() == root {
			t.Fatalf("\t%s\tShould get a different root when a value changes.", failed)
		}
		t.Logf("\t%s\tShould get a different root when a value changes.", success)
	}
}

func Test_EmptyTree(t *testing.T) {
	t.Log("Given the need to reject a tree with no content.")
	{
		if _, err := merkle.NewTree([]payload{}); err == nil {
			t.Fatalf("\t%s\tShould not be able to build a tree with no values.", failed)
		}
		t.Logf("\t%s\tShould not be able to build a tree with no values.", success)
	}
}
