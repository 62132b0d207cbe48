package i18n

// Error codes must match the codes defined in internal/platform/errors/codes.go.
// These are duplicated as strings to avoid an import cycle.
const (
	CodeUnknown            = "UNKNOWN"
	CodeBadRequest         = "BAD_REQUEST"
	CodeUnauthenticated    = "UNAUTHENTICATED"
	CodeContactNameEmpty   = "CONTACT_NAME_EMPTY"
	CodeContactInvalidType = "CONTACT_INVALID_TYPE"
	CodeNotFound           = "NOT_FOUND"
	CodeForbidden          = "FORBIDDEN"
	CodeStoreFault         = "STORE_FAULT"
)

var enUSMessages = map[Code]string{
	CodeUnknown:            "An unexpected error occurred",
	CodeBadRequest:         "The request could not be understood{{if .Reason}}: {{.Reason}}{{end}}",
	CodeUnauthenticated:    "No valid token, authorization denied",
	CodeContactNameEmpty:   "Name is required",
	CodeContactInvalidType: "Contact type {{.Type}} is not supported",
	CodeNotFound:           "Contact not found",
	CodeForbidden:          "Not authorized",
	CodeStoreFault:         "Server error",
}

var ptBRMessages = map[Code]string{
	CodeUnknown:            "Ocorreu um erro inesperado",
	CodeBadRequest:         "A requisição não pôde ser entendida{{if .Reason}}: {{.Reason}}{{end}}",
	CodeUnauthenticated:    "Token inválido, autorização negada",
	CodeContactNameEmpty:   "O nome é obrigatório",
	CodeContactInvalidType: "O tipo de contato {{.Type}} não é suportado",
	CodeNotFound:           "Contato não encontrado",
	CodeForbidden:          "Não autorizado",
	CodeStoreFault:         "Erro no servidor",
}
