package leads

import (
	"errors"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetailsNormalize(t *testing.T) {
	got, err := Details{
		Name:  "  Asha Rao ",
		Email: " Asha.Rao@Example.COM ",
		Phone: "+91 (987) 654-3210",
	}.Normalize()
	require.NoError(t, err)
	assert.Equal(t, Details{Name: "Asha Rao", Email: "asha.rao@example.com", Phone: "919876543210"}, got)
}

func TestDetailsNormalizeErrors(t *testing.T) {
	valid := Details{Name: "A", Email: "a@b.co", Phone: "9876543210"}

	tests := []struct {
		name    string
		mutate  func(d *Details)
		field   string
		message string
	}{
		{"blank name", func(d *Details) { d.Name = "   " }, "name", MsgMissingName},
		{"no at sign", func(d *Details) { d.Email = "ab.co" }, "email", MsgInvalidEmail},
		{"no dot", func(d *Details) { d.Email = "a@bco" }, "email", MsgInvalidEmail},
		{"space in email", func(d *Details) { d.Email = "a b@c.co" }, "email", MsgInvalidEmail},
		{"short phone", func(d *Details) { d.Phone = "12345-6789" }, "phone", MsgInvalidPhone},
		{"long phone", func(d *Details) { d.Phone = "1234567890123456" }, "phone", MsgInvalidPhone},
		{"empty phone", func(d *Details) { d.Phone = "n/a" }, "phone", MsgInvalidPhone},
		{"name checked first", func(d *Details) { d.Name = ""; d.Email = "bad" }, "name", MsgMissingName},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := valid
			tt.mutate(&d)

			_, err := d.Normalize()
			var detailsErr *DetailsError
			require.True(t, errors.As(err, &detailsErr), "got %v", err)
			assert.Equal(t, tt.field, detailsErr.Field)
			assert.Equal(t, tt.message, detailsErr.Error())
		})
	}
}

func TestDetailsPhoneBounds(t *testing.T) {
	_, err := Details{Name: "A", Email: "a@b.co", Phone: "1234567890"}.Normalize()
	assert.NoError(t, err)
	_, err = Details{Name: "A", Email: "a@b.co", Phone: "123456789012345"}.Normalize()
	assert.NoError(t, err)
}

func TestMetaFromRequest(t *testing.T) {
	r := httptest.NewRequest("POST", "/stocksense/analyze", nil)
	r.RemoteAddr = "10.0.0.9:51234"
	r.Header.Set("User-Agent", "test-agent")
	r.Header.Set("Referer", "https://diverss.example/")

	meta := MetaFromRequest(r)
	assert.Equal(t, Meta{IP: "10.0.0.9", UserAgent: "test-agent", Referer: "https://diverss.example/"}, meta)

	r.Header.Set("X-Forwarded-For", " 203.0.113.7 , 10.0.0.1")
	assert.Equal(t, "203.0.113.7", MetaFromRequest(r).IP)
}
