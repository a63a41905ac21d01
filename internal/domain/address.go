package domain

import (
	"fmt"
	"strings"
	"time"
)

// SummarySeparator joins address lines in a user's addresses summary.
const SummarySeparator = " | "

// Address is a postal address owned by exactly one user.
type Address struct {
	ID         int64     `json:"id"`
	UserID     int64     `json:"-"`
	CEP        string    `json:"cep"`
	Logradouro string    `json:"logradouro"`
	Numero     string    `json:"numero"`
	Bairro     string    `json:"bairro"`
	Cidade     string    `json:"cidade"`
	Estado     string    `json:"estado"`
	CreatedAt  time.Time `json:"-"`
}

// Line formats the address on a single line, e.g.
// "Rua A, 10 - Centro, Rio de Janeiro/RJ - CEP 20000-000".
func (a Address) Line() string {
	return fmt.Sprintf("%s, %s - %s, %s/%s - CEP %s",
		a.Logradouro, a.Numero, a.Bairro, a.Cidade, a.Estado, a.CEP)
}

// Summarize joins the formatted lines of addrs in order. It returns "" for
// an empty list.
func Summarize(addrs []Address) string {
	lines := make([]string, len(addrs))
	for i, a := range addrs {
		lines[i] = a.Line()
	}
	return strings.Join(lines, SummarySeparator)
}
