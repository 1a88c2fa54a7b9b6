package pagerange

import "testing"

func TestParse(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []Range
	}{
		{"single page", "3", []Range{{3, 3}}},
		{"simple range", "1-5", []Range{{1, 5}}},
		{"list", "1-5,8", []Range{{1, 5}, {8, 8}}},
		{"multiple ranges", "1-3,7-9,12", []Range{{1, 3}, {7, 9}, {12, 12}}},
		{"open ended", "12-", []Range{{12, 0}}},
		{"whitespace tolerated", " 1 - 5 , 8 ", []Range{{1, 5}, {8, 8}}},
		{"degenerate range", "4-4", []Range{{4, 4}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			set, err := Parse(tt.input)
			if err != nil {
				t.Fatalf("Parse(%q) failed: %v", tt.input, err)
			}
			if len(set.Ranges) != len(tt.want) {
				t.Fatalf("Parse(%q) = %v, want %v", tt.input, set.Ranges, tt.want)
			}
			for i, r := range set.Ranges {
				if r != tt.want[i] {
					t.Errorf("range %d = %v, want %v", i, r, tt.want[i])
				}
			}
		})
	}
}

func TestParseErrors(t *testing.T) {
	inputs := []string{
		"",
		"abc",
		"5-2",
		"0",
		"0-3",
		"1-2-3",
		"1,,2",
		"-5",
	}

	for _, input := range inputs {
		if _, err := Parse(input); err == nil {
			t.Errorf("Parse(%q) should fail", input)
		}
	}
}

func TestContains(t *testing.T) {
	set, err := Parse("1-3,7,10-")
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		page int
		want bool
	}{
		{1, true}, {2, true}, {3, true},
		{4, false}, {6, false},
		{7, true}, {8, false},
		{10, true}, {500, true},
	}

	for _, tt := range tests {
		if got := set.Contains(tt.page); got != tt.want {
			t.Errorf("Contains(%d) = %v, want %v", tt.page, got, tt.want)
		}
	}
}

func TestNilSetSelectsAll(t *testing.T) {
	var set *Set
	if !set.Contains(42) {
		t.Error("nil set should contain every page")
	}
	pages := set.Pages(3)
	if len(pages) != 3 {
		t.Errorf("nil set Pages(3) = %v, want all three", pages)
	}
}

func TestPages(t *testing.T) {
	set, err := Parse("2-3,3,8-")
	if err != nil {
		t.Fatal(err)
	}

	got := set.Pages(10)
	want := []int{2, 3, 8, 9, 10}
	if len(got) != len(want) {
		t.Fatalf("Pages(10) = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Pages(10)[%d] = %d, want %d", i, got[i], want[i])
		}
	}
}

func TestString(t *testing.T) {
	tests := []string{"3", "1-5", "1-5,8", "12-"}
	for _, input := range tests {
		set, err := Parse(input)
		if err != nil {
			t.Fatalf("Parse(%q) failed: %v", input, err)
		}
		if got := set.String(); got != input {
			t.Errorf("String() = %q, want %q", got, input)
		}
	}
}
