package dto

// DateRangeParams defines query parameters for range reports.
type DateRangeParams struct {
	From string `form:"from" binding:"required,datetime=2006-01-02"`
	To   string `form:"to" binding:"required,datetime=2006-01-02"`
}

// AsOfParams defines query parameters for point-in-time reports.
type AsOfParams struct {
	AsOf string `form:"asOf" binding:"required,datetime=2006-01-02"`
}
