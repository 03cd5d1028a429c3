package packets

// body for registering
type SignupRequest struct {
	Email    string  `json:"email" binding:"required,email"`
	Password string  `json:"password" binding:"required,min=8"`
	Name     *string `json:"name"`
}

// body for logging in
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type UpdateCurrentProfileRequest struct {
	Email string  `json:"email" binding:"required,email"`
	Name  *string `json:"name"`
}

// CreateScheduleRequest places every listed item on Date for every listed child.
type CreateScheduleRequest struct {
	ApprovedItemIDs []int  `json:"approved_item_ids" binding:"required,min=1"`
	ChildIDs        []int  `json:"child_ids" binding:"required,min=1"`
	Date            string `json:"date" binding:"required"`
}

type ListScheduleQuery struct {
	ChildID *int   `form:"child_id"`
	Date    string `form:"date"`
}

type ScheduleHistoryQuery struct {
	ChildID        int `form:"child_id" binding:"required"`
	ApprovedItemID int `form:"approved_item_id" binding:"required"`
}
