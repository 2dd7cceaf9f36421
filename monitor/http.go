package monitor

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/notnil/canfly"
)

// NewRouter serves st and the metrics gathered by gatherer:
//
//	GET /health       liveness and uptime
//	GET /nodes        last status of every node
//	GET /nodes/:node  last status of one node
//	GET /params       last value of every parameter
//	GET /metrics      prometheus exposition (when gatherer is non-nil)
func NewRouter(st *State, gatherer prometheus.Gatherer) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	started := time.Now()

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status": "ok",
			"uptime": time.Since(started).String(),
		})
	})

	router.GET("/nodes", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"nodes": st.Nodes()})
	})

	router.GET("/nodes/:node", func(c *gin.Context) {
		n, err := strconv.ParseUint(c.Param("node"), 10, 8)
		if err != nil || n > canfly.MaxStatusNode {
			c.JSON(http.StatusBadRequest, gin.H{"error": "node must be 0.." + strconv.Itoa(canfly.MaxStatusNode)})
			return
		}
		v, ok := st.Node(uint8(n))
		if !ok {
			c.JSON(http.StatusNotFound, gin.H{"error": "no status seen from node " + c.Param("node")})
			return
		}
		c.JSON(http.StatusOK, v)
	})

	router.GET("/params", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"params": st.Params()})
	})

	if gatherer != nil {
		router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))
	}
	return router
}
