package normalize

import "testing"

func TestKey(t *testing.T) {
	cases := []struct {
		in, out string
	}{
		{"Descrição", "descricao"},
		{"DESCRICAO", "descricao"},
		{"  descricao ", "descricao"},
		{"Categoria", "categoria"},
		{"VALOR", "valor"},
		{"Centro  de\tCusto", "centro de custo"},
		{"Centro de Custo", "centro de custo"},
		{"São Paulo", "sao paulo"},
		{"coração", "coracao"},
		{"Média de Público", "media de publico"},
		{"àéîõü ç Ç", "aeiou c c"},
		{"", ""},
		{"   ", ""},
	}
	for _, tc := range cases {
		if got := Key(tc.in); got != tc.out {
			t.Fatalf("Key(%q) expected %q, got %q", tc.in, tc.out, got)
		}
	}
}

func TestKeyEquivalence(t *testing.T) {
	// Headers differing only by accent, case or whitespace normalize to
	// the same key.
	groups := [][]string{
		{"Descrição", "descrição", "DESCRIÇÃO", "Descricao", " descricao  "},
		{"Centro de Custo", "centro  de  custo", "CENTRO DE CUSTO"},
		{"Válôr", "valor", "VALOR "},
	}
	for _, group := range groups {
		want := Key(group[0])
		for _, h := range group[1:] {
			if got := Key(h); got != want {
				t.Fatalf("Key(%q) = %q, expected %q as for %q", h, got, want, group[0])
			}
		}
	}
}

func TestKeyIdempotent(t *testing.T) {
	inputs := []string{"Descrição", "  Centro  de Custo ", "ÀÉÎÕÜ", "tipo", "já normalizado aqui"}
	for _, in := range inputs {
		once := Key(in)
		if twice := Key(once); twice != once {
			t.Fatalf("Key not idempotent for %q: %q != %q", in, once, twice)
		}
	}
}

func TestField(t *testing.T) {
	cases := []struct {
		in    string
		field string
		ok    bool
	}{
		{"Data", "data", true},
		{"TIPO", "tipo", true},
		{"Descrição", "descricao", true},
		{"Histórico", "descricao", true},
		{"Valor (R$)", "valor", true},
		{"Amount", "valor", true},
		{"Rateio", "centro de custo", true},
		{"Centro de Custo", "centro de custo", true},
		{"Natureza", "tipo", true},
		{"Observações", "observacoes", false},
	}
	for _, tc := range cases {
		field, ok := Field(tc.in)
		if field != tc.field || ok != tc.ok {
			t.Fatalf("Field(%q) expected (%q, %v), got (%q, %v)", tc.in, tc.field, tc.ok, field, ok)
		}
	}
}

func TestRecognizedCoversSchema(t *testing.T) {
	seen := make(map[string]bool)
	for _, k := range Recognized() {
		seen[k] = true
	}
	for _, f := range SchemaFields() {
		if !seen[f] {
			t.Fatalf("schema field %q missing from recognized set", f)
		}
	}
}
