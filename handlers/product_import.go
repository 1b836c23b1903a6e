package handlers

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"matjar-backend/dtos"
	"matjar-backend/models"
	"matjar-backend/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"
)

// stockRow is one parsed spreadsheet line, kept with its original row number
// so errors can point back at the file.
type stockRow struct {
	RowNumber int
	Barcode   string
	Quantity  float64
}

// ImportProducts accepts an .xlsx of (barcode, quantity) rows, validates the
// sheet shape, then applies stock counts in the background. Returns a job ID
// to poll.
func (h *ProductHandler) ImportProducts(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No spreadsheet file provided"})
		return
	}

	if ext := strings.ToLower(fileHeader.Filename); !strings.HasSuffix(ext, ".xlsx") {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Only .xlsx files are supported"})
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to read uploaded file"})
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to read uploaded file"})
		return
	}

	rows, err := readSheetRows(data)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	// First row is the header
	job := utils.Store.CreateJob(len(rows) - 1)

	go h.processImport(job.ID, rows)

	c.JSON(http.StatusAccepted, gin.H{
		"job_id": job.ID.String(),
		"status": "processing",
		"total":  job.Total,
	})
}

// GetImportJobStatus returns progress and per-row errors for an import job.
func (h *ProductHandler) GetImportJobStatus(c *gin.Context) {
	id := c.Param("id")
	jobUUID, err := uuid.Parse(id)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid job ID"})
		return
	}

	job, exists := utils.Store.GetJob(jobUUID)
	if !exists {
		c.JSON(http.StatusNotFound, gin.H{"error": "Job not found"})
		return
	}

	c.JSON(http.StatusOK, job)
}

func readSheetRows(data []byte) ([][]string, error) {
	file, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("could not open spreadsheet: %v", err)
	}
	defer func() { _ = file.Close() }()

	sheetName := file.GetSheetName(0)
	if sheetName == "" {
		return nil, fmt.Errorf("no worksheet found")
	}

	rows, err := file.GetRows(sheetName)
	if err != nil {
		return nil, err
	}
	if len(rows) < 2 {
		return nil, fmt.Errorf("worksheet has no data rows")
	}
	return rows, nil
}

// processImport runs in the background. Rows that fail validation or match no
// product are recorded and skipped; rows already applied stay applied.
func (h *ProductHandler) processImport(jobID uuid.UUID, rows [][]string) {
	utils.Store.SetProcessing(jobID)

	dataRows := rows[1:]
	for i, row := range dataRows {
		rowNumber := i + 2 // 1-based plus header

		parsed, err := parseStockRow(rowNumber, row)
		if err != nil {
			utils.Store.AddFailure(jobID, rowNumber, err.Error())
		} else if err := h.applyStockRow(parsed); err != nil {
			utils.Store.AddFailure(jobID, rowNumber, err.Error())
		} else {
			utils.Store.AddSuccess(jobID)
		}

		processed := i + 1
		utils.Store.UpdateJob(jobID, func(j *dtos.ImportJob) {
			j.Processed = processed
			j.Progress = processed * 100 / len(dataRows)
		})
	}

	utils.Store.CompleteJob(jobID, dtos.JobStatusCompleted)
}

func parseStockRow(rowNumber int, row []string) (*stockRow, error) {
	cell := func(idx int) string {
		if idx >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[idx])
	}

	barcode := cell(0)
	if barcode == "" {
		return nil, fmt.Errorf("missing barcode")
	}

	quantity, err := strconv.ParseFloat(cell(1), 64)
	if err != nil || quantity < 0 {
		return nil, fmt.Errorf("invalid quantity %q", cell(1))
	}

	return &stockRow{RowNumber: rowNumber, Barcode: barcode, Quantity: quantity}, nil
}

// applyStockRow sets the counted stock on the product matching the barcode.
func (h *ProductHandler) applyStockRow(row *stockRow) error {
	var product models.Product
	if err := h.DB.Where("barcode = ?", row.Barcode).First(&product).Error; err != nil {
		return fmt.Errorf("no product with barcode %q", row.Barcode)
	}

	if err := h.DB.Model(&product).Update("stock_quantity", row.Quantity).Error; err != nil {
		return fmt.Errorf("failed to update stock: %v", err)
	}
	return nil
}
