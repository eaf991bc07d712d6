package middleware

// identity.go holds helpers shared across middleware files. The rate
// limiter and the cache key both want a stable identifier for the
// caller; authenticated requests use the customer id set by JWTAuth,
// everything else is "guest".

import (
	"strconv"

	"github.com/labstack/echo/v4"
)

// userID extracts the caller identifier from the context. It returns
// "guest" when no user is authenticated.
func userID(c echo.Context) string {
	switch v := c.Get("customer_id").(type) {
	case string:
		if v != "" {
			return v
		}
	case float64:
		// MapClaims decodes numeric subjects as float64.
		return strconv.Itoa(int(v))
	}
	return "guest"
}
