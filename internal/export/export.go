// Package export writes the roster projection out as CSV or a spreadsheet
// for office use.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/xuri/excelize/v2"

	"reportcard-backend/internal/model"
)

var header = []string{
	"ID", "Name", "Email", "Year", "Department", "Program", "Course",
	"Classes Held", "Classes Attended", "Attendance %", "Marks %", "Grade", "Status",
}

func row(s model.StudentSummary) []string {
	return []string{
		s.StudentID,
		s.Name,
		s.Email,
		strconv.Itoa(s.Year),
		s.Department,
		s.ProgramType,
		s.CourseName,
		strconv.Itoa(s.ClassesHeld),
		strconv.Itoa(s.ClassesAttended),
		fmt.Sprintf("%.2f", s.AttendancePercent),
		fmt.Sprintf("%.2f", s.MarksPercent),
		s.Grade,
		string(s.Status),
	}
}

func WriteCSV(w io.Writer, summaries []model.StudentSummary) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return err
	}
	for _, s := range summaries {
		if err := cw.Write(row(s)); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func WriteXLSX(w io.Writer, summaries []model.StudentSummary) error {
	file := excelize.NewFile()
	defer file.Close()

	const sheet = "Students"
	index, err := file.NewSheet(sheet)
	if err != nil {
		return err
	}
	file.SetActiveSheet(index)
	file.DeleteSheet("Sheet1")

	for col, name := range header {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return err
		}
		if err := file.SetCellValue(sheet, cell, name); err != nil {
			return err
		}
	}

	for i, s := range summaries {
		for col, value := range row(s) {
			cell, err := excelize.CoordinatesToCellName(col+1, i+2)
			if err != nil {
				return err
			}
			if err := file.SetCellValue(sheet, cell, value); err != nil {
				return err
			}
		}
	}

	return file.Write(w)
}
