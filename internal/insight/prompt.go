// Package insight produces the short mentor-style feedback shown after a
// check-in is submitted.
package insight

import (
	"fmt"
	"strings"
)

// DefaultOrganization is used when no organization is configured.
const DefaultOrganization = "Sooft"

// Fallback is the message shown whenever no generated text is available.
func Fallback(org string) string {
	return fmt.Sprintf("¡Buen trabajo completando tu revisión mensual! Desde %s vamos a estar acompañándote para que sigas creciendo.", orgOrDefault(org))
}

// BuildPrompt renders the generation prompt for one check-in. The comments
// line is left out when comments is blank.
func BuildPrompt(org string, completion, bugs, satisfaction int, comments string) string {
	org = orgOrDefault(org)

	var sb strings.Builder
	fmt.Fprintf(&sb, "Eres un mentor de ingeniería experimentado. Un desarrollador ha reportado lo siguiente para este mes en %s:\n", org)
	fmt.Fprintf(&sb, "- Completitud de tareas: %d%%\n", completion)
	fmt.Fprintf(&sb, "- Cantidad de bugs: %d\n", bugs)
	fmt.Fprintf(&sb, "- Nivel de satisfacción (1-5): %d\n", satisfaction)
	if c := strings.TrimSpace(comments); c != "" {
		fmt.Fprintf(&sb, "- Comentarios adicionales del dev: \"%s\"\n", c)
	}
	sb.WriteString("\n")
	sb.WriteString(`Regla importante: Si los bugs son mayores a 2, considera que la calidad del desarrollo es "moderada" o "preocupante" y ofrece consejos técnicos específicos.`)
	sb.WriteString("\n\n")
	fmt.Fprintf(&sb, `IMPORTANTE: No te propongas tú mismo como ayuda directa (ej. "yo te ayudo"). En su lugar, indica que "Desde %s vamos a estar acompañándote" o "En %s estamos para apoyarte en lo que necesites".`, org, org)
	sb.WriteString("\n\n")
	sb.WriteString("Escribe una respuesta corta (máximo 3 frases) motivadora y profesional. Si la satisfacción es baja, sé empático. Si todo es positivo y los bugs son 0-2, celebra su éxito. Responde en Español.")
	return sb.String()
}

func orgOrDefault(org string) string {
	if org = strings.TrimSpace(org); org == "" {
		return DefaultOrganization
	}
	return org
}
