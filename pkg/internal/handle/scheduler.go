package handle

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yeisme/filterbot/pkg/middleware"
)

// SchedulerJobs 返回所有定时任务的状态.
func SchedulerJobs(c *gin.Context) {
	sched := middleware.GetScheduler(c)
	if sched == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "scheduler not initialized"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"jobs": sched.GetJobInfos()})
}

// SchedulerRunJob 立即执行指定名称的任务.
func SchedulerRunJob(c *gin.Context) {
	sched := middleware.GetScheduler(c)
	if sched == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "scheduler not initialized"})
		return
	}

	name := c.Param("name")

	if _, err := sched.GetJobInfoByName(name); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}

	if err := sched.RunNow(c.Request.Context(), name); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"job": name, "error": err.Error()})
		return
	}

	info, _ := sched.GetJobInfoByName(name)
	c.JSON(http.StatusOK, gin.H{"job": info})
}
