package payables

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGroupFields(t *testing.T) {
	groups := GroupFields([]string{"name", "amount", "due_date", "status", "vehicle_plate", "extra"})

	require.Len(t, groups, 4)
	assert.Equal(t, FieldGroup{Label: "Informações Básicas", Fields: []string{"name"}}, groups[0])
	assert.Equal(t, FieldGroup{Label: "Dados Financeiros", Fields: []string{"amount", "due_date"}}, groups[1])
	assert.Equal(t, FieldGroup{Label: "Veículo", Fields: []string{"vehicle_plate"}}, groups[2])
	assert.Equal(t, FieldGroup{Label: OtherFieldsLabel, Fields: []string{"status", "extra"}}, groups[3])
}

func TestAccountFieldGroups_CoversEveryField(t *testing.T) {
	seen := map[string]int{}
	for _, g := range AccountFieldGroups() {
		for _, f := range g.Fields {
			seen[f]++
		}
	}
	for _, f := range AccountFields {
		assert.Equal(t, 1, seen[f], f)
	}
	groups := AccountFieldGroups()
	assert.Equal(t, OtherFieldsLabel, groups[len(groups)-1].Label)
}

func TestFoldForSearch(t *testing.T) {
	assert.Equal(t, "agua e esgoto", FoldForSearch("Água e Esgoto"))
	assert.Equal(t, "manutencao", FoldForSearch(" MANUTENÇÃO "))
	assert.Equal(t, FoldForSearch("Energia Elétrica"), FoldForSearch("energia eletrica"))
}

func TestParseDate(t *testing.T) {
	d, err := ParseDate("2024-03-12")
	require.NoError(t, err)
	assert.Equal(t, NewDate(2024, time.March, 12), d)

	d, err = ParseDate("12/03/2024")
	require.NoError(t, err)
	assert.Equal(t, NewDate(2024, time.March, 12), d)

	for _, bad := range []string{"", "2024-13-01", "31/02/2024", "yesterday"} {
		_, err := ParseDate(bad)
		assert.ErrorIs(t, err, ErrInvalidDate, bad)
	}
}

func TestDaysBetween(t *testing.T) {
	assert.Equal(t, 1, DaysBetween(NewDate(2024, time.February, 28), NewDate(2024, time.February, 29)))
	assert.Equal(t, 366, DaysBetween(NewDate(2024, time.January, 1), NewDate(2025, time.January, 1)))
	assert.Equal(t, -2, DaysBetween(NewDate(2024, time.March, 12), NewDate(2024, time.March, 10)))
}

func TestClocks(t *testing.T) {
	fixed := FixedClock{Date: time.Date(2024, time.March, 10, 18, 30, 0, 0, time.UTC)}
	assert.Equal(t, NewDate(2024, time.March, 10), fixed.Today())

	loc, err := time.LoadLocation("America/Sao_Paulo")
	if err != nil {
		t.Skip("tzdata not available")
	}
	today := NewSystemClock(loc).Today()
	assert.Equal(t, 0, today.Hour())
	assert.Equal(t, time.UTC, today.Location())
}

func TestNormalizePhone(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"", "", false},
		{"(11) 98765-4321", "11987654321", false},
		{"+55 (11) 98765-4321", "5511987654321", false},
		{"1234", "", true},
		{"12345678901234", "", true},
	}
	for _, tt := range tests {
		got, err := NormalizePhone(tt.in)
		if tt.wantErr {
			assert.Error(t, err, tt.in)
			continue
		}
		assert.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got)
	}

	assert.Equal(t, "5511987654321", WhatsAppNumber("11987654321"))
	assert.Equal(t, "5511987654321", WhatsAppNumber("5511987654321"))
}

func TestNewGroup(t *testing.T) {
	g, err := NewGroup("  Fornecedores ", "Contas de fornecedores")
	require.NoError(t, err)
	assert.Equal(t, "Fornecedores", g.Name)
	assert.True(t, g.Active)

	_, err = NewGroup("", "")
	assert.Error(t, err)

	require.NoError(t, g.Update("Impostos", "", false))
	assert.Equal(t, "Impostos", g.Name)
	assert.False(t, g.Active)
}
