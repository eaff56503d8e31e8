package workers

type EnrollFaceResponse struct {
	Message         string `json:"message"`
	FacePhotosCount int    `json:"facePhotosCount"`
	FacePhotoURL    string `json:"facePhotoUrl"`
}

type DeleteFacePhotoResponse struct {
	Message         string `json:"message"`
	RemainingPhotos int    `json:"remainingPhotos"`
}

type MessageResponse struct {
	Message string `json:"message"`
}
