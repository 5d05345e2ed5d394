// Package dispatch classifies incoming updates and executes their side effects
// at most once per update id.
package dispatch

// Compile-time configuration of the button flow. The trigger keyword is matched
// case-insensitively against the trimmed message text; the callback prefix
// namespaces option tokens inside the provider's flat callback-data string.
const (
	// TriggerKeyword posts the category keyboard.
	TriggerKeyword = "menu"
	// TemplateKeyword posts the copy-and-edit message template.
	TemplateKeyword = "plantilla"
	// CallbackPrefix namespaces option tokens in callback data.
	CallbackPrefix = "opt_"
)

// ButtonOption is one entry of the static category keyboard.
type ButtonOption struct {
	Label string
	Token string
}

// Options is the ordered list of quick expense categories offered by the
// keyboard. Tokens end up on the wire as CallbackPrefix + Token.
var Options = []ButtonOption{
	{Label: "Comida 🍽️", Token: "comida"},
	{Label: "Transporte 🚌", Token: "transporte"},
	{Label: "Mercado 🛒", Token: "mercado"},
	{Label: "Servicios 💡", Token: "servicios"},
	{Label: "Otros 📦", Token: "otros"},
}

// MessageTemplate is the ready-to-edit structured message sent on demand.
const MessageTemplate = `Copia y edita (sin comillas):
FECHA=YYYY-MM-DD|ITEM=Descripción|COSTO=12345
Ejemplos:
FECHA=2025-08-24|ITEM=Útiles escolares|COSTO=35000
ITEM=Transporte|COSTO=18.000|FECHA=24/08/2025`
