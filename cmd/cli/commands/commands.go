package commands

import "github.com/spf13/cobra"

// All returns every subcommand of the rota CLI, bound to app
func All(app *AppContext) []*cobra.Command {
	return []*cobra.Command{
		// workers and departments
		AddWorkerCmd(app),
		ListWorkersCmd(app),
		RemoveWorkerCmd(app),
		AddDepartmentCmd(app),
		RemoveDepartmentCmd(app),
		ListDepartmentsCmd(app),

		// calendar
		HolidaysCmd(app),
		AddHolidayCmd(app),
		RemoveHolidayCmd(app),

		// shifts
		AddShiftCmd(app),
		EditShiftCmd(app),
		MoveShiftCmd(app),
		RemoveShiftCmd(app),
		LeaveCheckCmd(app),

		// weeks
		ViewWeekCmd(app),
		CopyWeekCmd(app),
		PasteWeekCmd(app),
		ClearWeekCmd(app),
		ClearMonthCmd(app),

		StatsCmd(app),

		// import and export
		ImportCmd(app),
		ExportCmd(app),
		ExportWorkbookCmd(app),
		PublishWeekCmd(app),

		ServeCmd(app),
		InteractiveCmd(app),
	}
}
