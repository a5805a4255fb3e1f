package hl7

import (
	"errors"
	"testing"
)

func TestDefaultDelimiters(t *testing.T) {
	tests := []struct {
		name     string
		field    string
		want     rune
		wantDesc string
	}{
		{name: "Field", field: "Field", want: '|', wantDesc: "pipe character"},
		{name: "Component", field: "Component", want: '^', wantDesc: "caret character"},
		{name: "Repetition", field: "Repetition", want: '~', wantDesc: "tilde character"},
		{name: "Escape", field: "Escape", want: '\\', wantDesc: "backslash character"},
		{name: "SubComponent", field: "SubComponent", want: '&', wantDesc: "ampersand character"},
		{name: "Truncation", field: "Truncation", want: '#', wantDesc: "hash character"},
	}

	d := DefaultDelimiters()
	if d == nil {
		t.Fatal("DefaultDelimiters() returned nil")
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got rune
			switch tt.field {
			case "Field":
				got = d.Field
			case "Component":
				got = d.Component
			case "Repetition":
				got = d.Repetition
			case "Escape":
				got = d.Escape
			case "SubComponent":
				got = d.SubComponent
			case "Truncation":
				got = d.Truncation
			}
			if got != tt.want {
				t.Errorf("DefaultDelimiters().%s = %q, want %q (%s)", tt.field, got, tt.want, tt.wantDesc)
			}
		})
	}
}

func TestDiscover(t *testing.T) {
	tests := []struct {
		name       string
		mshSegment []byte
		want       *Delimiters
		wantErr    error
	}{
		{
			name:       "standard five-character MSH-2",
			mshSegment: []byte("MSH|^~\\&|SendingApp|SendingFac|"),
			want: &Delimiters{
				Field: '|', Component: '^', Repetition: '~', Escape: '\\',
				SubComponent: '&', Truncation: '#',
			},
		},
		{
			name:       "explicit truncation character",
			mshSegment: []byte("MSH|^~\\&#|SendingApp|"),
			want: &Delimiters{
				Field: '|', Component: '^', Repetition: '~', Escape: '\\',
				SubComponent: '&', Truncation: '#',
			},
		},
		{
			name:       "non-standard delimiters",
			mshSegment: []byte("MSH@#$*!?@App@"),
			want: &Delimiters{
				Field: '@', Component: '#', Repetition: '$', Escape: '*',
				SubComponent: '!', Truncation: '?',
			},
		},
		{
			name:       "not an MSH segment",
			mshSegment: []byte("PID|1|"),
			wantErr:    ErrNotMSHSegment,
		},
		{
			name:       "empty input",
			mshSegment: []byte{},
			wantErr:    ErrEmptyInput,
		},
		{
			name:       "too few parser characters",
			mshSegment: []byte("MSH|^~|"),
			wantErr:    ErrMissingDelimiter,
		},
		{
			name:       "field separator reappears after three characters",
			mshSegment: []byte("MSH|^~\\|next"),
			wantErr:    ErrMissingDelimiter,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Discover(tt.mshSegment)
			if tt.wantErr != nil {
				if err == nil {
					t.Fatalf("Discover() error = nil, wantErr %v", tt.wantErr)
				}
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("Discover() error = %v, wantErr %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Discover() unexpected error = %v", err)
			}
			if !got.Equal(tt.want) {
				t.Errorf("Discover() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestDiscover_DoubleBackslashNormalization(t *testing.T) {
	got, err := Discover([]byte(`MSH\\^~|&\\App`))
	if err != nil {
		t.Fatalf("Discover() unexpected error = %v", err)
	}
	if got.Field != '\\' {
		t.Errorf("Field = %q, want \\", got.Field)
	}
}

func TestDiscover_CollisionRejected(t *testing.T) {
	_, err := Discover([]byte("MSH|^~\\^|App|"))
	if !errors.Is(err, ErrDelimiterCollision) {
		t.Errorf("error = %v, want ErrDelimiterCollision", err)
	}
}

func TestDelimiters_EncodingCharacters(t *testing.T) {
	d := DefaultDelimiters()
	want := "^~\\&#"
	if got := d.EncodingCharacters(); got != want {
		t.Errorf("EncodingCharacters() = %q, want %q", got, want)
	}
	if got := d.MSH2(); got != want {
		t.Errorf("MSH2() = %q, want %q", got, want)
	}
	if got := d.MSH1(); got != "|" {
		t.Errorf("MSH1() = %q, want %q", got, "|")
	}
}
