package color

import "testing"

func TestNew_Clamps(t *testing.T) {
	tests := []struct {
		name    string
		r, g, b int
		wantR   int
		wantG   int
		wantB   int
	}{
		{
			name: "in range",
			r:    10, g: 20, b: 30,
			wantR: 10, wantG: 20, wantB: 30,
		},
		{
			name: "below range",
			r:    -1, g: -100, b: 0,
			wantR: 0, wantG: 0, wantB: 0,
		},
		{
			name: "above range",
			r:    256, g: 1000, b: 255,
			wantR: 255, wantG: 255, wantB: 255,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := New(tt.r, tt.g, tt.b)
			if !c.Equals(tt.wantR, tt.wantG, tt.wantB) {
				t.Errorf("New(%d,%d,%d) = %v, want rgb(%d, %d, %d)",
					tt.r, tt.g, tt.b, c, tt.wantR, tt.wantG, tt.wantB)
			}
		})
	}
}

func TestColor_Arithmetic(t *testing.T) {
	c := New(100, 100, 100)

	c.Add(10, 20, 200)
	if !c.Equals(110, 120, 255) {
		t.Errorf("after Add: %v, want rgb(110, 120, 255)", c)
	}

	c.Subtract(200, 20, 5)
	if !c.Equals(0, 100, 250) {
		t.Errorf("after Subtract: %v, want rgb(0, 100, 250)", c)
	}

	c.Set(2, 3, 4)
	c.Multiply(10, 10, 100)
	if !c.Equals(20, 30, 255) {
		t.Errorf("after Multiply: %v, want rgb(20, 30, 255)", c)
	}
}

func TestColor_Distance(t *testing.T) {
	a := New(10, 200, 0)
	b := New(30, 100, 255)

	d := a.Distance(b)
	if !d.Equals(20, 100, 255) {
		t.Errorf("Distance() = %v, want rgb(20, 100, 255)", d)
	}

	// Distance is symmetric.
	d2 := b.Distance(a)
	if !d.EqualsColor(d2) {
		t.Errorf("Distance not symmetric: %v vs %v", d, d2)
	}
}

func TestColor_Copy(t *testing.T) {
	a := New(1, 2, 3)
	b := a.Copy()

	b.Set(4, 5, 6)
	if !a.Equals(1, 2, 3) {
		t.Errorf("mutating copy changed original: %v", a)
	}
}

func TestColor_Hex(t *testing.T) {
	tests := []struct {
		r, g, b int
		want    string
	}{
		{0, 0, 0, "000000"},
		{255, 255, 255, "FFFFFF"},
		{10, 20, 255, "0A14FF"},
	}

	for _, tt := range tests {
		if got := New(tt.r, tt.g, tt.b).Hex(); got != tt.want {
			t.Errorf("Hex(%d,%d,%d) = %q, want %q", tt.r, tt.g, tt.b, got, tt.want)
		}
	}
}

func TestParseHex(t *testing.T) {
	c, err := ParseHex("0A14FF")
	if err != nil {
		t.Fatalf("ParseHex() error = %v", err)
	}
	if !c.Equals(10, 20, 255) {
		t.Errorf("ParseHex() = %v, want (10, 20, 255)", c)
	}

	c, err = ParseHex("#ff8800")
	if err != nil {
		t.Fatalf("ParseHex() with prefix error = %v", err)
	}
	if !c.Equals(255, 136, 0) {
		t.Errorf("ParseHex() = %v, want (255, 136, 0)", c)
	}

	for _, bad := range []string{"", "FFF", "GG0000", "1234567", "#12345"} {
		if _, err := ParseHex(bad); err == nil {
			t.Errorf("ParseHex(%q) accepted invalid input", bad)
		}
	}
}

func TestColor_ClampNeverEscapes(t *testing.T) {
	// Whatever sequence of mutations runs, channels stay in range.
	c := Black()
	c.Add(300, 300, 300)
	c.Multiply(5, 5, 5)
	c.Subtract(1000, 1000, 1000)
	c.Add(-50, 999, 128)

	r, g, b := c.RGB()
	for _, v := range []int{r, g, b} {
		if v < 0 || v > 255 {
			t.Fatalf("channel escaped clamp range: %v", c)
		}
	}
}
