package api

import "github.com/gin-gonic/gin"

// SetupRoutes registers all API routes
func SetupRoutes(router *gin.Engine, handler *Handler) {
	router.GET("/health", handler.HealthCheck)

	v1 := router.Group("/api/v1")
	{
		students := v1.Group("/students")
		{
			students.POST("", handler.UpsertStudent)
			students.GET("", handler.ListStudents)
			students.GET("/:student_id", handler.GetStudent)
			students.DELETE("/:student_id", handler.DeleteStudent)
			students.POST("/:student_id/email", handler.EmailReport)
		}

		subjects := v1.Group("/subjects")
		{
			subjects.POST("", handler.AddSubject)
			subjects.GET("", handler.ListSubjects)
		}

		v1.GET("/departments", handler.ListDepartments)
		v1.GET("/statistics", handler.GetStatistics)
		v1.GET("/reports/:student_id", handler.DownloadReport)

		export := v1.Group("/export")
		{
			export.GET("/csv", handler.ExportCSV)
			export.GET("/xlsx", handler.ExportXLSX)
		}

		v1.POST("/backup", handler.Backup)
	}
}
