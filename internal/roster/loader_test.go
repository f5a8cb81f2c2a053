package roster

import (
	"reflect"
	"strings"
	"testing"
)

func TestParse(t *testing.T) {
	csv := strings.Join([]string{
		"name,image,#category,#era,notes",
		"Ada Lovelace,ada.png,\"scientist, pioneer\",1800s,first programmer",
		"Frida Kahlo,frida.png,artist,1900s,",
	}, "\n")

	pool, err := Parse(strings.NewReader(csv))
	if err != nil {
		t.Fatal(err)
	}
	if len(pool) != 2 {
		t.Fatalf("parsed %d characters, want 2", len(pool))
	}

	ada := pool[0]
	if ada.ImageRef != "ada.png" {
		t.Errorf("image = %q, want ada.png", ada.ImageRef)
	}
	if ada.Props["name"] != "Ada Lovelace" || ada.Props["notes"] != "first programmer" {
		t.Errorf("props = %v", ada.Props)
	}
	if got := ada.Tags["category"]; !reflect.DeepEqual(got, []string{"scientist", "pioneer"}) {
		t.Errorf("category tags = %v, want comma-split values", got)
	}
	if got := ada.Tags["era"]; !reflect.DeepEqual(got, []string{"1800s"}) {
		t.Errorf("era tags = %v", got)
	}

	frida := pool[1]
	if _, ok := frida.Props["notes"]; ok {
		t.Error("empty cell produced a prop")
	}
	if got := frida.Tags["category"]; !reflect.DeepEqual(got, []string{"artist"}) {
		t.Errorf("category tags = %v", got)
	}
}

func TestParseSkipsEmptyRows(t *testing.T) {
	csv := "name,image\nAda,ada.png\n,\nGrace,grace.png\n"
	pool, err := Parse(strings.NewReader(csv))
	if err != nil {
		t.Fatal(err)
	}
	if len(pool) != 2 {
		t.Errorf("parsed %d characters, want 2 with the blank row skipped", len(pool))
	}
}

func TestParseRequiresImageColumn(t *testing.T) {
	_, err := Parse(strings.NewReader("name,#category\nAda,scientist\n"))
	if err == nil || !strings.Contains(err.Error(), "image") {
		t.Errorf("missing image column not reported, err = %v", err)
	}
}

func TestParseReportsRowMissingImage(t *testing.T) {
	csv := "name,image\nAda,ada.png\nGrace,\n"
	_, err := Parse(strings.NewReader(csv))
	if err == nil || !strings.Contains(err.Error(), "row 3") {
		t.Errorf("row without image locator not reported with its row number, err = %v", err)
	}
}

func TestParseRaggedRows(t *testing.T) {
	// Exported sheets often drop trailing empty cells.
	csv := "name,image,#category\nAda,ada.png\n"
	pool, err := Parse(strings.NewReader(csv))
	if err != nil {
		t.Fatal(err)
	}
	if len(pool) != 1 {
		t.Fatalf("parsed %d characters, want 1", len(pool))
	}
	if len(pool[0].Tags) != 0 {
		t.Errorf("short row produced tags %v", pool[0].Tags)
	}
}
