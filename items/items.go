// items/items.go
package items

import (
	"errors"
	"math/rand"
)

// Item 题目条目：名称与"会不会飞"的标准答案
type Item struct {
	ID    string
	Text  string
	Image string
	Flies bool
}

var ErrEmptyBank = errors.New("item bank is empty")

// Bank is a static catalog of question items. It holds no mutable state;
// every pick is independent.
type Bank struct {
	items []Item
}

func NewBank(items []Item) *Bank {
	return &Bank{items: items}
}

// DefaultBank returns the built-in catalog.
func DefaultBank() *Bank {
	return NewBank(defaultItems)
}

func (b *Bank) Len() int {
	return len(b.items)
}

// Pick returns a random item whose ID differs from excludeID, so the same
// item never appears in two consecutive rounds. When the bank holds a
// single item the exclusion is waived.
func (b *Bank) Pick(excludeID string) (Item, error) {
	if len(b.items) == 0 {
		return Item{}, ErrEmptyBank
	}
	if len(b.items) == 1 {
		return b.items[0], nil
	}

	for {
		item := b.items[rand.Intn(len(b.items))]
		if item.ID != excludeID {
			return item, nil
		}
	}
}

var defaultItems = []Item{
	{ID: "chidiya", Text: "Chidiya (Sparrow)", Flies: true},
	{ID: "kauwa", Text: "Kauwa (Crow)", Flies: true},
	{ID: "tota", Text: "Tota (Parrot)", Flies: true},
	{ID: "kabutar", Text: "Kabutar (Pigeon)", Flies: true},
	{ID: "titli", Text: "Titli (Butterfly)", Flies: true},
	{ID: "machhar", Text: "Machhar (Mosquito)", Flies: true},
	{ID: "cheel", Text: "Cheel (Eagle)", Flies: true},
	{ID: "ullu", Text: "Ullu (Owl)", Flies: true},
	{ID: "hawai-jahaz", Text: "Hawai Jahaz (Aeroplane)", Flies: true},
	{ID: "helicopter", Text: "Helicopter", Flies: true},
	{ID: "patang", Text: "Patang (Kite)", Flies: true},
	{ID: "chamgadar", Text: "Chamgadar (Bat)", Flies: true},
	{ID: "madhumakhi", Text: "Madhumakhi (Bee)", Flies: true},
	{ID: "rocket", Text: "Rocket", Flies: true},
	{ID: "gaay", Text: "Gaay (Cow)", Flies: false},
	{ID: "bhains", Text: "Bhains (Buffalo)", Flies: false},
	{ID: "kutta", Text: "Kutta (Dog)", Flies: false},
	{ID: "billi", Text: "Billi (Cat)", Flies: false},
	{ID: "haathi", Text: "Haathi (Elephant)", Flies: false},
	{ID: "ghoda", Text: "Ghoda (Horse)", Flies: false},
	{ID: "machli", Text: "Machli (Fish)", Flies: false},
	{ID: "saanp", Text: "Saanp (Snake)", Flies: false},
	{ID: "mez", Text: "Mez (Table)", Flies: false},
	{ID: "kursi", Text: "Kursi (Chair)", Flies: false},
	{ID: "patthar", Text: "Patthar (Stone)", Flies: false},
	{ID: "ped", Text: "Ped (Tree)", Flies: false},
	{ID: "ghar", Text: "Ghar (House)", Flies: false},
	{ID: "cycle", Text: "Cycle", Flies: false},
	{ID: "ostrich", Text: "Shuturmurg (Ostrich)", Flies: false},
	{ID: "penguin", Text: "Penguin", Flies: false},
	{ID: "murgi", Text: "Murgi (Hen)", Flies: false},
	{ID: "bakri", Text: "Bakri (Goat)", Flies: false},
}
