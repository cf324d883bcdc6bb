package render

import (
	"fmt"
	"io"

	"github.com/trebuchet-org/govdeploy/internal/domain"
)

// RecordsRenderer renders persisted run outputs
type RecordsRenderer struct {
	out io.Writer
}

// NewRecordsRenderer creates a new records renderer
func NewRecordsRenderer(out io.Writer) *RecordsRenderer {
	return &RecordsRenderer{
		out: out,
	}
}

// RenderRun renders the records of a run as a table
func (r *RecordsRenderer) RenderRun(run *domain.RunResult) error {
	network := "unknown"
	if run.Network != nil {
		network = run.Network.NetworkID
	}

	headerStyle.Fprintf(r.out, "Network %s", network)
	faintStyle.Fprintf(r.out, "  run %s, %s\n", run.RunID, run.Status)
	if run.Group != "" {
		faintStyle.Fprintf(r.out, "group %s, deployer %s\n", run.Group, run.Deployer)
	}
	fmt.Fprintln(r.out)

	if len(run.Records) == 0 {
		fmt.Fprintln(r.out, "No components recorded")
		return nil
	}

	rows := TableData{{
		headerStyle.Sprint("COMPONENT"),
		headerStyle.Sprint("ADDRESS"),
		headerStyle.Sprint("STATE"),
		headerStyle.Sprint("CONF"),
		headerStyle.Sprint("VERIFIED"),
		headerStyle.Sprint("BOOTSTRAP"),
	}}
	for _, rec := range run.Records {
		rows = append(rows, []string{
			nameStyle.Sprint(rec.ComponentName),
			addrStyle.Sprint(orDash(rec.Address)),
			StateLabel(rec.State),
			fmt.Sprintf("%d", rec.ConfirmationsObserved),
			verifiedCell(rec),
			bootstrapCell(rec),
		})
	}
	fmt.Fprintln(r.out, renderTable(rows, "  "))

	for _, rec := range run.Records {
		if rec.Error != "" {
			fmt.Fprintln(r.out, FormatError(fmt.Sprintf("%s: %s", rec.ComponentName, rec.Error)))
		}
		if !rec.Verified && rec.VerificationNote != "" {
			fmt.Fprintln(r.out, FormatWarning(fmt.Sprintf("%s: %s", rec.ComponentName, rec.VerificationNote)))
		}
	}
	if run.Succeeded() {
		fmt.Fprintln(r.out, FormatSuccess(fmt.Sprintf("%d component(s) complete", len(run.Records))))
	}
	return nil
}

func verifiedCell(rec *domain.DeploymentRecord) string {
	switch {
	case rec.Verified:
		return successStyle.Sprint("✓")
	case rec.VerificationNote != "":
		return warningStyle.Sprint("✗")
	default:
		return faintStyle.Sprint("-")
	}
}

func bootstrapCell(rec *domain.DeploymentRecord) string {
	switch {
	case !rec.BootstrapRequired:
		return faintStyle.Sprint("-")
	case rec.BootstrapCompleted:
		return successStyle.Sprint("done")
	default:
		return warningStyle.Sprint("pending")
	}
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
