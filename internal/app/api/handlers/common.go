package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/fatflowers/shopcredits/pkg/response"
)

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeBadRequest, msg))
}

// fail writes err with the status and envelope code its kind maps to.
func fail(c *gin.Context, err error) {
	status, code := response.FromError(err)
	c.JSON(status, response.ErrorT[any](code, err.Error()))
}
