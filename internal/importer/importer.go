package importer

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"goeats/internal/domain"
	"goeats/internal/service/cart"

	"github.com/shopspring/decimal"
)

// Header is the column layout read by CSVImporter and written by Export.
var Header = []string{"menu_id", "name", "price", "quantity", "image"}

type CartWriter interface {
	AddItem(in cart.AddItemInput) (domain.LineItem, error)
}

// CSVImporter reads cart exports and adds each row to the cart. Rows for a
// menu item already in the cart increase its quantity.
type CSVImporter struct {
	reader *csv.Reader
	cart   CartWriter
}

func NewCSVImporter(r io.Reader, items CartWriter) *CSVImporter {
	csvr := csv.NewReader(r)
	csvr.FieldsPerRecord = -1 // rows may have trailing commas
	return &CSVImporter{reader: csvr, cart: items}
}

// Run parses CSV rows and adds them to the cart. It stops at the first bad
// row; rows before it stay imported.
func (i *CSVImporter) Run() (int, error) {
	headers, err := i.reader.Read()
	if err != nil {
		return 0, fmt.Errorf("read headers: %w", err)
	}
	index := headerIndex(headers)
	if _, ok := index["menu_id"]; !ok {
		return 0, fmt.Errorf("missing menu_id column")
	}

	imported := 0
	line := 1
	for {
		record, err := i.reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return imported, fmt.Errorf("read row: %w", err)
		}
		line++

		in, skip, err := parseRow(record, index)
		if err != nil {
			return imported, fmt.Errorf("line %d: %w", line, err)
		}
		if skip {
			continue
		}
		if _, err := i.cart.AddItem(in); err != nil {
			return imported, fmt.Errorf("line %d: add %q: %w", line, in.MenuItemID, err)
		}
		imported++
	}

	return imported, nil
}

// Export writes items in the layout Run reads.
func Export(w io.Writer, items []domain.LineItem) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return err
	}
	for _, item := range items {
		row := []string{
			item.MenuItemID,
			item.Name,
			item.UnitPrice.StringFixed(2),
			strconv.Itoa(item.Quantity),
			item.ImageRef,
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func headerIndex(headers []string) map[string]int {
	idx := make(map[string]int, len(headers))
	for i, h := range headers {
		idx[strings.ToLower(strings.TrimSpace(h))] = i
	}
	return idx
}

func parseRow(record []string, index map[string]int) (cart.AddItemInput, bool, error) {
	menuID := pick(record, index, "menu_id")
	if menuID == "" {
		return cart.AddItemInput{}, true, nil
	}

	price := decimal.Zero
	if raw := pick(record, index, "price"); raw != "" {
		p, err := decimal.NewFromString(raw)
		if err != nil {
			return cart.AddItemInput{}, false, fmt.Errorf("invalid price %q", raw)
		}
		price = p
	}

	quantity := 1
	if raw := pick(record, index, "quantity"); raw != "" {
		q, err := strconv.Atoi(raw)
		if err != nil {
			return cart.AddItemInput{}, false, fmt.Errorf("invalid quantity %q", raw)
		}
		quantity = q
	}

	return cart.AddItemInput{
		MenuItemID: menuID,
		Name:       pick(record, index, "name"),
		UnitPrice:  price,
		Quantity:   quantity,
		ImageRef:   pick(record, index, "image"),
	}, false, nil
}

func pick(record []string, index map[string]int, key string) string {
	pos, ok := index[key]
	if !ok || pos >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[pos])
}
