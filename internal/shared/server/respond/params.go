package respond

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// UUIDParam parses the named path parameter. On failure it writes a 400 and returns false.
func UUIDParam(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		Error(c, http.StatusBadRequest, "validation_error", "invalid "+name, nil)
		return uuid.Nil, false
	}
	return id, true
}
