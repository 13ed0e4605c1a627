package store

import "github.com/timmy/querydesk/internal/domain"

type employee struct {
	id        int
	name      string
	deptID    int
	position  string
	salary    int
	joinDate  string
	location  string
	reportsTo int
}

var departments = map[int]string{
	1: "Engineering",
	2: "Sales",
	3: "Finance",
	4: "People",
}

var employees = []employee{
	{1, "Asha Rao", 1, "VP Engineering", 310000, "2016-03-14", "Bangalore", 0},
	{2, "Vikram Shah", 1, "Staff Engineer", 240000, "2018-07-02", "Bangalore", 1},
	{3, "Meera Iyer", 1, "Software Engineer", 145000, "2021-01-18", "Chennai", 2},
	{4, "Rahul Nair", 1, "Software Engineer", 152000, "2022-05-09", "Hyderabad", 2},
	{5, "Kabir Singh", 2, "Sales Director", 220000, "2017-11-20", "Mumbai", 0},
	{6, "Priya Menon", 2, "Account Executive", 98000, "2020-02-03", "Mumbai", 5},
	{7, "Arjun Das", 2, "Account Executive", 91000, "2023-08-21", "Delhi", 5},
	{8, "Neha Gupta", 3, "Finance Manager", 175000, "2019-04-15", "Delhi", 0},
	{9, "Rohan Kapoor", 3, "Analyst", 88000, "2023-01-09", "Mumbai", 8},
	{10, "Divya Pillai", 4, "HR Business Partner", 112000, "2020-10-26", "Chennai", 0},
	{11, "Sameer Khan", 4, "Recruiter", 76000, "2024-02-12", "Hyderabad", 10},
	{12, "Lakshmi Reddy", 1, "Engineering Manager", 205000, "2019-09-30", "Hyderabad", 1},
}

func sampleSchema() *domain.Schema {
	return &domain.Schema{
		Tables: []domain.Table{
			{
				Name: "employees",
				Columns: []domain.Column{
					{Name: "emp_id", Type: "INTEGER"},
					{Name: "full_name", Type: "VARCHAR"},
					{Name: "dept_id", Type: "INTEGER"},
					{Name: "position", Type: "VARCHAR"},
					{Name: "annual_salary", Type: "INTEGER"},
					{Name: "join_date", Type: "DATE"},
					{Name: "office_location", Type: "VARCHAR"},
					{Name: "reports_to", Type: "INTEGER"},
				},
			},
			{
				Name: "departments",
				Columns: []domain.Column{
					{Name: "dept_id", Type: "INTEGER"},
					{Name: "dept_name", Type: "VARCHAR"},
				},
			},
		},
		Relationships: []domain.Relationship{
			{FromTable: "employees", FromColumns: []string{"dept_id"}, ToTable: "departments", ToColumns: []string{"dept_id"}},
			{FromTable: "employees", FromColumns: []string{"reports_to"}, ToTable: "employees", ToColumns: []string{"emp_id"}},
		},
		AliasVocab: []string{
			"staff", "employee", "salary", "pay", "compensation",
			"division", "department", "manager", "location", "hired",
		},
	}
}

func (e employee) row() domain.Row {
	var reportsTo any
	if e.reportsTo != 0 {
		reportsTo = e.reportsTo
	}
	return domain.NewRow(
		"emp_id", e.id,
		"full_name", e.name,
		"dept_name", departments[e.deptID],
		"position", e.position,
		"annual_salary", e.salary,
		"join_date", e.joinDate,
		"office_location", e.location,
		"reports_to", reportsTo,
	)
}
