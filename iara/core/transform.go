package core

import (
	"strings"
	"time"

	"golang.org/x/text/cases"

	"iara.com/iarasync/iara/model"
	"iara.com/iarasync/utils"
)

// ActiveStatus is the origin user status meaning active.
const ActiveStatus = "Ativo"

const (
	GenderFeminine  = "Feminino"
	GenderMasculine = "Masculino"
	GenderOther     = "Outro"
)

type AccessTypeLabel struct {
	Name        string
	Description string
}

var (
	AccessAdministrator = AccessTypeLabel{
		Name:        "Administrador",
		Description: "Pode criar cargos, realizar pagamentos e visualizar informações sensíveis sobre a fábrica",
	}
	AccessSupervisor = AccessTypeLabel{
		Name:        "Supervisor",
		Description: "Pode revisar e aprovar solicitações de alterações nos relatórios",
	}
	AccessRequester = AccessTypeLabel{
		Name:        "Solicitante",
		Description: "Pode solicitar alterações nos relatórios.",
	}
	AccessViewer = AccessTypeLabel{
		Name:        "Visualizador",
		Description: "Pode visualizar relatórios e informações do sistema.",
	}
)

var accessTypesByCode = map[int]AccessTypeLabel{
	1: AccessAdministrator,
	2: AccessSupervisor,
	3: AccessRequester,
}

var folder = cases.Fold()

// ExtractDomain returns what follows the first "@" of email, or "".
func ExtractDomain(email *string) string {
	if email == nil {
		return ""
	}
	_, domain, found := strings.Cut(*email, "@")
	if !found {
		return ""
	}
	return domain
}

// DeactivatedAt is nil for active entities. Inactive entities keep the
// timestamp already stored in the target, or get now on first deactivation.
func DeactivatedAt(active bool, existing *time.Time, now time.Time) *time.Time {
	if active {
		return nil
	}
	if existing != nil {
		return existing
	}
	return &now
}

func UserActive(status string) bool {
	return status == ActiveStatus
}

func FactoryActive(status *bool) bool {
	return status != nil && *status
}

// CreatedAt is midnight UTC of the source calendar date.
func CreatedAt(date time.Time) time.Time {
	return utils.DateOnlyUTC(date)
}

// MonthlyDuration counts whole 30 day months, flooring negatives.
func MonthlyDuration(iv model.Interval) int {
	return int(utils.FloorDiv(iv.TotalDays(), 30))
}

// AccessTypeFor recodes the origin access level. Unknown or missing codes
// fall back to the viewer label.
func AccessTypeFor(code *int) AccessTypeLabel {
	if code == nil {
		return AccessViewer
	}
	if label, ok := accessTypesByCode[*code]; ok {
		return label
	}
	return AccessViewer
}

func GenderLabel(raw string) string {
	switch folder.String(strings.TrimSpace(raw)) {
	case "masc":
		return GenderMasculine
	case "fem":
		return GenderFeminine
	default:
		return GenderOther
	}
}
