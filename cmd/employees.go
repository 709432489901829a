package cmd

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spigell/hr-assistant/internal/hr"
	"github.com/spigell/hr-assistant/internal/workflow"
)

var employeesCmd = &cobra.Command{
	Use:   "employees",
	Short: "Inspect payroll records",
}

var employeesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List active employees",
	Run: func(cmd *cobra.Command, _ []string) {
		withServices(func(ctx context.Context, svc *services, _ *Config, _ *zap.Logger) error {
			term, _ := cmd.Flags().GetString("search")
			if term != "" {
				employees, err := svc.payroll.SearchEmployees(ctx, term)
				if err != nil {
					return err
				}
				fmt.Println(workflow.Format(workflow.EmployeeList{Employees: employees, Filter: term}))
				return nil
			}

			employees, err := svc.payroll.ListEmployees(ctx)
			if err != nil {
				return err
			}
			fmt.Println(workflow.Format(workflow.EmployeeList{Employees: employees}))
			return nil
		})
	},
}

var employeesSalaryCmd = &cobra.Command{
	Use:   "salary <employee id or name>",
	Short: "Print the salary breakdown of an employee",
	Args:  cobra.ExactArgs(1),
	Run: func(_ *cobra.Command, args []string) {
		withServices(func(ctx context.Context, svc *services, _ *Config, _ *zap.Logger) error {
			e, err := svc.payroll.FindEmployee(ctx, args[0])
			if err != nil {
				return err
			}
			breakdown, err := svc.payroll.Calculate(ctx, e.EmployeeID)
			if err != nil {
				return err
			}
			fmt.Println(workflow.Format(workflow.SalaryCalculation{Breakdown: *breakdown}))
			return nil
		})
	},
}

var employeesReportCmd = &cobra.Command{
	Use:   "report [department]",
	Short: "Print the payroll report of a department, or of everybody",
	Args:  cobra.MaximumNArgs(1),
	Run: func(_ *cobra.Command, args []string) {
		withServices(func(ctx context.Context, svc *services, _ *Config, _ *zap.Logger) error {
			department := ""
			if len(args) == 1 {
				department = args[0]
			}
			report, err := svc.payroll.Report(ctx, department)
			if err != nil {
				return err
			}
			fmt.Println(workflow.Format(workflow.PayrollReport{Report: *report}))
			return nil
		})
	},
}

var employeesUpdateCmd = &cobra.Command{
	Use:   "update <employee id>",
	Short: "Change salary, bonus, tax rate or deductions",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		withServices(func(ctx context.Context, svc *services, _ *Config, logger *zap.Logger) error {
			var update hr.CompensationUpdate
			for flag, dst := range map[string]**float64{
				"salary":     &update.Salary,
				"bonus":      &update.Bonus,
				"tax-rate":   &update.TaxRate,
				"deductions": &update.Deductions,
			} {
				if !cmd.Flags().Changed(flag) {
					continue
				}
				v, _ := cmd.Flags().GetFloat64(flag)
				*dst = hr.Float(v)
			}

			if err := svc.payroll.UpdateCompensation(ctx, args[0], update); err != nil {
				return err
			}
			logger.Info("employee updated", zap.String("employee_id", args[0]))
			return nil
		})
	},
}

var employeesStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Print workforce analytics",
	Run: func(_ *cobra.Command, _ []string) {
		withServices(func(ctx context.Context, svc *services, _ *Config, logger *zap.Logger) error {
			a, err := svc.payroll.Analytics(ctx)
			if err != nil {
				return err
			}
			pretty, _ := json.MarshalIndent(a, "", "  ")
			logger.Info(string(pretty), zap.Int("employees count", a.TotalEmployees))
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(employeesCmd)
	employeesCmd.AddCommand(
		employeesListCmd,
		employeesSalaryCmd,
		employeesReportCmd,
		employeesUpdateCmd,
		employeesStatsCmd,
	)

	employeesListCmd.Flags().StringP("search", "s", "", "only employees whose name, ID, department or position contains this")

	employeesUpdateCmd.Flags().Float64("salary", 0, "base salary")
	employeesUpdateCmd.Flags().Float64("bonus", 0, "bonus")
	employeesUpdateCmd.Flags().Float64("tax-rate", 0, "tax rate between 0 and 1")
	employeesUpdateCmd.Flags().Float64("deductions", 0, "deductions")
}
