package rosterrouter

import "github.com/gin-gonic/gin"

func Register(apiBase *gin.RouterGroup) {
	employeesGroup := apiBase.Group("/employees")
	{
		// GET /api/v0/employees
		// List the roster
		employeesGroup.GET("", listEmployees)

		// GET /api/v0/employees/:employee_id
		// Get one employee
		employeesGroup.GET("/:employee_id", getEmployee)
	}
}
