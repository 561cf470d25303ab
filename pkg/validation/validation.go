package validation

import (
	"errors"
	"strings"

	"github.com/rivo/uniseg"
)

const MaxMessageGraphemes = 4096

// ValidateNumero checks that a raw phone input has at least one digit. Full format
// checks belong to the number normalizer.
func ValidateNumero(numero string) error {
	trimmed := strings.TrimSpace(numero)
	if trimmed == "" {
		return errors.New("Campo obrigatório: numero")
	}
	if !strings.ContainsAny(trimmed, "0123456789") {
		return errors.New("numero must contain digits")
	}
	return nil
}

// ValidateMensagem checks a text message body, counting user-perceived characters.
func ValidateMensagem(mensagem string) error {
	if strings.TrimSpace(mensagem) == "" {
		return errors.New("Campo obrigatório: mensagem")
	}
	if uniseg.GraphemeClusterCount(mensagem) > MaxMessageGraphemes {
		return errors.New("mensagem is too long")
	}
	return nil
}
