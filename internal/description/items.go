package description

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/spf13/cast"
)

// Key prefixes of indexed line items, e.g. item_name_1, quantity_1.
const (
	PrefixItemNumber   = "item_number_"
	PrefixItemName     = "item_name_"
	PrefixItemQuantity = "quantity_"
	PrefixItemAmount   = "amount_"
)

// IndexedItem is one line item described by item_*_<n> keys.
type IndexedItem struct {
	Index    int
	Number   string
	Name     string
	Quantity int
	Amount   *decimal.Decimal
}

func itemIndex(key string) (int, error) {
	parts := strings.Split(key, "_")
	last := parts[len(parts)-1]
	n, err := strconv.Atoi(last)
	if err != nil {
		return 0, newFieldError(key, fmt.Sprintf(
			"Could not parse value '%s' at the end of key '%s' to a number. Expected for example, 'some_key_1'.", last, key))
	}
	return n, nil
}

// LineItems collects indexed line items, ordered by index. Descriptions without
// item_*_<n> keys yield no items.
func (d Description) LineItems() ([]IndexedItem, error) {
	keys := make([]string, 0, len(d.raw))
	for k := range d.raw {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	byIndex := make(map[int]*IndexedItem)
	get := func(i int) *IndexedItem {
		it, ok := byIndex[i]
		if !ok {
			it = &IndexedItem{Index: i, Quantity: 1}
			byIndex[i] = it
		}
		return it
	}

	for _, key := range keys {
		v := d.raw[key]
		switch {
		case strings.HasPrefix(key, PrefixItemNumber):
			i, err := itemIndex(key)
			if err != nil {
				return nil, err
			}
			get(i).Number = cast.ToString(v)
		case strings.HasPrefix(key, PrefixItemName):
			i, err := itemIndex(key)
			if err != nil {
				return nil, err
			}
			get(i).Name = cast.ToString(v)
		case strings.HasPrefix(key, PrefixItemQuantity):
			i, err := itemIndex(key)
			if err != nil {
				return nil, err
			}
			q, err := cast.ToIntE(v)
			if err != nil || q <= 0 {
				return nil, newFieldError(key, fmt.Sprintf("Could not parse quantity in '%s'", key))
			}
			get(i).Quantity = q
		case strings.HasPrefix(key, PrefixItemAmount):
			i, err := itemIndex(key)
			if err != nil {
				return nil, err
			}
			s, err := cast.ToStringE(v)
			if err != nil {
				return nil, newFieldError(key, "Could not parse "+key)
			}
			amount, err := ParseAmount(key, s)
			if err != nil {
				return nil, err
			}
			get(i).Amount = &amount
		}
	}

	items := make([]IndexedItem, 0, len(byIndex))
	for _, it := range byIndex {
		items = append(items, *it)
	}
	sort.Slice(items, func(i, j int) bool { return items[i].Index < items[j].Index })
	return items, nil
}
