package api

import (
	"encoding/base64"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ademirvarjao/conciliador-bancario/internal/application/service"
	"github.com/ademirvarjao/conciliador-bancario/internal/domain/matcher"
)

type importRequest struct {
	Files []struct {
		Name    string `json:"name"`
		Content string `json:"content"` // base64 when encoding=base64, raw text otherwise
	} `json:"files"`
	Encoding string `json:"encoding"`
}

func (s *Server) importFiles(c *gin.Context) {
	files, ok := s.readFiles(c)
	if !ok {
		return
	}
	if len(files) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "no files provided"})
		return
	}

	summary, err := s.session.ImportFiles(files)
	if err != nil {
		s.logger.Error("import failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	status := http.StatusOK
	if summary.Imported == 0 && len(summary.Failures) > 0 {
		status = http.StatusUnprocessableEntity
	}
	c.JSON(status, summary)
}

// readFiles accepts either a multipart form upload or a JSON body with
// inline file contents.
func (s *Server) readFiles(c *gin.Context) ([]service.File, bool) {
	contentType := c.ContentType()
	if contentType == "multipart/form-data" {
		form, err := c.MultipartForm()
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid multipart form: " + err.Error()})
			return nil, false
		}
		var files []service.File
		for _, fh := range form.File["files"] {
			f, err := fh.Open()
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "cannot open " + fh.Filename})
				return nil, false
			}
			content, err := io.ReadAll(f)
			f.Close()
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "cannot read " + fh.Filename})
				return nil, false
			}
			files = append(files, service.File{Name: fh.Filename, Content: content})
		}
		return files, true
	}

	var req importRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return nil, false
	}
	files := make([]service.File, 0, len(req.Files))
	for _, f := range req.Files {
		content := []byte(f.Content)
		if req.Encoding == "base64" {
			decoded, err := base64.StdEncoding.DecodeString(f.Content)
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "invalid base64 content for " + f.Name})
				return nil, false
			}
			content = decoded
		}
		files = append(files, service.File{Name: f.Name, Content: content})
	}
	return files, true
}

func (s *Server) importLedger(c *gin.Context) {
	files, ok := s.readFiles(c)
	if !ok {
		return
	}
	if len(files) != 1 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "exactly one ledger file is required"})
		return
	}

	count, err := s.session.ImportLedger(files[0].Content)
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"imported": count})
}

func (s *Server) importAccounts(c *gin.Context) {
	var req struct {
		Content string `json:"content"`
		Label   string `json:"label"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}

	if req.Label != "" {
		if err := s.session.AddAccount(req.Label); err != nil {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"accounts": s.session.Accounts()})
		return
	}

	count, err := s.session.ImportAccounts([]byte(req.Content))
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"imported": count, "accounts": s.session.Accounts()})
}

func (s *Server) listAccounts(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"accounts": s.session.Accounts()})
}

func (s *Server) listRules(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"rules": s.session.Rules()})
}

func (s *Server) addRule(c *gin.Context) {
	var req struct {
		Pattern string `json:"pattern" binding:"required"`
		Account string `json:"account" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "pattern and account are required"})
		return
	}
	if err := s.session.AddRule(req.Pattern, req.Account); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"rules": s.session.Rules()})
}

func (s *Server) listTransactions(c *gin.Context) {
	term := c.Query("search")
	status := c.Query("status")
	txs := s.session.Search(term, status)
	c.JSON(http.StatusOK, gin.H{
		"transactions": txs,
		"total":        len(txs),
	})
}

func (s *Server) correctAccount(c *gin.Context) {
	var req struct {
		Account string `json:"account" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "account is required"})
		return
	}
	if err := s.session.CorrectAccount(c.Param("id"), req.Account); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"rules": s.session.Rules()})
}

func (s *Server) reconcile(c *gin.Context) {
	req := struct {
		ToleranceDays  *int     `json:"tolerance_days"`
		ToleranceValue *float64 `json:"tolerance_value"`
	}{}
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
			return
		}
	}

	tol := matcher.DefaultTolerance
	if req.ToleranceDays != nil {
		tol.Days = *req.ToleranceDays
	}
	if req.ToleranceValue != nil {
		tol.Value = *req.ToleranceValue
	}
	if tol.Days < 0 || tol.Value < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "tolerances must not be negative"})
		return
	}

	report, err := s.session.Reconcile(tol)
	if err != nil {
		s.logger.Error("reconciliation failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, report)
}

func (s *Server) getReport(c *gin.Context) {
	report := s.session.Report()
	if report == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "no reconciliation has run yet"})
		return
	}
	c.JSON(http.StatusOK, report)
}

func (s *Server) getSummary(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"session_id": s.session.SessionID(),
		"metrics":    s.session.Metrics(),
	})
}

func (s *Server) exportCSV(c *gin.Context) {
	data := s.session.ExportCSV()
	c.Header("Content-Disposition", `attachment; filename="conciliacao.csv"`)
	c.Data(http.StatusOK, "text/csv; charset=utf-8", data)
}

func (s *Server) exportArchive(c *gin.Context) {
	data, err := s.session.ExportArchive()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.Header("Content-Disposition", `attachment; filename="sessao.json"`)
	c.Data(http.StatusOK, "application/json", data)
}

func (s *Server) importArchive(c *gin.Context) {
	data, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "cannot read request body"})
		return
	}
	if err := s.session.ImportArchive(data); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"metrics": s.session.Metrics()})
}

func (s *Server) loadSamples(c *gin.Context) {
	if err := s.session.LoadSamples(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"metrics": s.session.Metrics()})
}

func (s *Server) reset(c *gin.Context) {
	if err := s.session.Reset(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "reset"})
}

func (s *Server) setMetadata(c *gin.Context) {
	var req struct {
		Company  string `json:"company"`
		Bank     string `json:"bank"`
		Currency string `json:"currency"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}
	if err := s.session.SetMetadata(req.Company, req.Bank, req.Currency); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "updated"})
}
