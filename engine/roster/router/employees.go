package rosterrouter

import (
	"github.com/gin-gonic/gin"

	"github.com/demoplan/demoplan/engine/infra/server/router"
	"github.com/demoplan/demoplan/engine/roster/uc"
)

// listEmployees lists the roster
//
//	@Summary		List employees
//	@Description	Retrieve the employee roster, optionally restricted to active employees
//	@Tags			employees
//	@Produce		json
//	@Param			active	query		bool	false	"Only active employees"
//	@Success		200		{object}	router.Response{data=object{employees=[]EmployeeDTO}}	"Employees retrieved"
//	@Failure		500		{object}	router.Response{error=router.ErrorInfo}					"Internal server error"
//	@Router			/employees [get]
func listEmployees(c *gin.Context) {
	state := router.GetAppState(c)
	if state == nil {
		return
	}
	activeOnly := c.Query("active") == "true"
	employees, err := uc.NewListEmployees(state.Store, activeOnly).Execute(c.Request.Context())
	if err != nil {
		router.RespondWithDomainError(c, err)
		return
	}
	router.RespondOK(c, "employees retrieved", gin.H{"employees": toEmployeeDTOs(employees)})
}

// getEmployee retrieves one employee
//
//	@Summary		Get an employee
//	@Description	Retrieve a single employee by local ID
//	@Tags			employees
//	@Produce		json
//	@Param			employee_id	path		string	true	"Employee ID"
//	@Success		200			{object}	router.Response{data=EmployeeDTO}		"Employee retrieved"
//	@Failure		404			{object}	router.Response{error=router.ErrorInfo}	"Employee not found"
//	@Failure		500			{object}	router.Response{error=router.ErrorInfo}	"Internal server error"
//	@Router			/employees/{employee_id} [get]
func getEmployee(c *gin.Context) {
	state := router.GetAppState(c)
	if state == nil {
		return
	}
	employee, err := uc.NewGetEmployee(state.Store, c.Param("employee_id")).Execute(c.Request.Context())
	if err != nil {
		router.RespondWithDomainError(c, err)
		return
	}
	router.RespondOK(c, "employee retrieved", toEmployeeDTO(employee))
}
