package ui

import "testing"

func TestLayout_Clamp(t *testing.T) {
	l := DefaultLayout()
	tests := []struct {
		name           string
		total          int
		pri, sec       int
		dual           bool
		wantPri, wantS int
	}{
		{"narrow screen untouched", 600, 800, 400, true, 800, 400},
		{"fits", 1000, 250, 250, true, 250, 250},
		{"scaled proportionally", 1000, 800, 400, true, 600, 300},
		{"primary kept at minimum", 1000, 10, 2000, true, 25, 875},
		{"secondary kept at minimum", 1000, 2000, 10, true, 875, 25},
		{"single pane capped", 1000, 1200, 250, false, 900, 250},
		{"single pane fits", 1000, 300, 250, false, 300, 250},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			p, s := l.Clamp(tc.total, tc.pri, tc.sec, tc.dual)
			if p != tc.wantPri || s != tc.wantS {
				t.Errorf("Clamp = (%d, %d), want (%d, %d)", p, s, tc.wantPri, tc.wantS)
			}
		})
	}
}

func TestLayout_ResizePrimary(t *testing.T) {
	l := DefaultLayout()
	tests := []struct {
		name           string
		w              int
		dual           bool
		wantPri, wantS int
	}{
		{"grow takes from secondary", 300, true, 300, 200},
		{"shrink gives to secondary", 200, true, 200, 300},
		{"minimum width", 5, true, 25, 475},
		{"unchanged", 250, true, 250, 250},
		{"single pane capped", 2000, false, 900, 250},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			p, s := l.ResizePrimary(1000, 250, 250, tc.w, tc.dual)
			if p != tc.wantPri || s != tc.wantS {
				t.Errorf("ResizePrimary = (%d, %d), want (%d, %d)", p, s, tc.wantPri, tc.wantS)
			}
		})
	}

	if p, s := l.ResizePrimary(600, 250, 250, 400, true); p != 250 || s != 250 {
		t.Errorf("narrow ResizePrimary = (%d, %d), want no change", p, s)
	}
}

func TestLayout_ResizeSecondary(t *testing.T) {
	l := DefaultLayout()
	if p, s := l.ResizeSecondary(1000, 250, 250, 10); p != 235 || s != 25 {
		t.Errorf("below minimum = (%d, %d), want (235, 25)", p, s)
	}
	if p, s := l.ResizeSecondary(1000, 250, 250, 900); p != 250 || s != 650 {
		t.Errorf("capped = (%d, %d), want (250, 650)", p, s)
	}
	if p, s := l.ResizeSecondary(1000, 250, 250, 300); p != 250 || s != 300 {
		t.Errorf("grow = (%d, %d), want (250, 300)", p, s)
	}
	if p, s := l.ResizeSecondary(700, 250, 250, 300); p != 250 || s != 250 {
		t.Errorf("narrow = (%d, %d), want no change", p, s)
	}
}

func TestLayout_Split(t *testing.T) {
	l := DefaultLayout()
	tests := []struct {
		total, pri, sec int
		wantPri, wantS  int
	}{
		{81, 250, 250, 40, 40},
		{81, 10, 500, 25, 55},
		{81, 500, 10, 55, 25},
		{30, 250, 250, 14, 15},
		{0, 250, 250, 0, 0},
		{50, 0, 0, 50, 0},
	}
	for _, tc := range tests {
		p, s := l.Split(tc.total, tc.pri, tc.sec)
		if p != tc.wantPri || s != tc.wantS {
			t.Errorf("Split(%d, %d, %d) = (%d, %d), want (%d, %d)",
				tc.total, tc.pri, tc.sec, p, s, tc.wantPri, tc.wantS)
		}
	}
}

func TestFit(t *testing.T) {
	if got := fit("abc", 5); got != "abc  " {
		t.Errorf("fit pad = %q", got)
	}
	if got := fit("abcdef", 4); got != "abc…" {
		t.Errorf("fit truncate = %q", got)
	}
	if got := fit("漢字漢字", 6); got != "漢字… " {
		t.Errorf("fit wide = %q", got)
	}
	if got := fit("x", 0); got != "" {
		t.Errorf("fit zero = %q", got)
	}
}
