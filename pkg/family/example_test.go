package family_test

import (
	"fmt"

	"github.com/matzehuels/kintree/pkg/errors"
	"github.com/matzehuels/kintree/pkg/family"
)

func ExampleGraph_basic() {
	g := family.New()
	_ = g.AddPerson(family.Person{ID: "ada", FirstName: "Ada", Alive: true})
	_ = g.AddPerson(family.Person{ID: "bo", FirstName: "Bo", Alive: true})
	_ = g.AddPerson(family.Person{ID: "cy", FirstName: "Cy", Alive: true})

	couple := family.NewSpouse("ada", "bo")
	couple.ID = "r1"
	child := family.NewChild("ada", "cy")
	child.ID = "r2"
	_ = g.AddRelationship(couple)
	_ = g.AddRelationship(child)

	spouse, _ := g.Spouse("ada")
	fmt.Println("Spouse of ada:", spouse)
	fmt.Println("Children of ada:", g.Children("ada"))
	fmt.Println("Roots:", g.Roots())
	// Output:
	// Spouse of ada: bo
	// Children of ada: [cy]
	// Roots: [ada bo]
}

func ExampleGraph_CheckRelationship() {
	g := family.New()
	for _, id := range []string{"a", "b", "c"} {
		_ = g.AddPerson(family.Person{ID: id, FirstName: id, Alive: true})
	}
	r := family.NewSpouse("a", "b")
	r.ID = "r1"
	_ = g.AddRelationship(r)

	err := g.CheckRelationship(family.NewSpouse("a", "c"))
	fmt.Println(errors.GetCode(err))
	fmt.Println(errors.IsConflict(err))
	// Output:
	// SPOUSE_CONFLICT
	// true
}
