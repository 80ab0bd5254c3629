/*
 * Copyright 2025 Cong Wang
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package server

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/servicecomb-go/swagger-adapter/internal/errors"
	"github.com/servicecomb-go/swagger-adapter/internal/types"
)

// respondWithError sends a standardized error response
func (s *Server) respondWithError(c *gin.Context, statusCode int, code, message string, details map[string]interface{}) {
	errorResponse := types.ErrorResponse{
		Error: types.ErrorDetail{
			Code:      code,
			Message:   message,
			Details:   details,
			Timestamp: time.Now().UTC(),
			RequestID: c.GetString("request_id"),
		},
	}

	s.logError(c, statusCode, code, message, nil)
	c.JSON(statusCode, errorResponse)
}

// respondWithAdapterError sends an error response from an AdapterError
func (s *Server) respondWithAdapterError(c *gin.Context, err *errors.AdapterError) {
	err.RequestID = c.GetString("request_id")
	statusCode := err.GetHTTPStatus()

	s.logError(c, statusCode, string(err.Code), err.Message, err.Cause)
	c.JSON(statusCode, err.ToErrorResponse())
}

func (s *Server) logError(c *gin.Context, statusCode int, code, message string, cause error) {
	logger := s.logger.WithContext(c.Request.Context()).WithFields(map[string]interface{}{
		"status_code": statusCode,
		"error_code":  code,
		"method":      c.Request.Method,
		"path":        c.Request.URL.Path,
		"remote_addr": c.ClientIP(),
	})

	if statusCode >= 500 {
		logger.Error(message, cause)
	} else {
		logger.Warn(message)
	}

	s.provider.RecordError("server", code)
}

// requestMetrics records request count, latency and in-flight requests
func (s *Server) requestMetrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		s.provider.IncHTTPRequestsInFlight()
		defer s.provider.DecHTTPRequestsInFlight()

		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		s.provider.RecordHTTPRequest(c.Request.Method, path, c.Writer.Status(), time.Since(start))
	}
}
