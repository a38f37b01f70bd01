// Copyright (c) 2026 Khaled Abbas
//
// This source code is licensed under the Business Source License 1.1.
//
// Change Date: 4 years after the first public release of this version.
// Change License: MIT
//
// On the Change Date, this version of the code automatically converts
// to the MIT License. Prior to that date, use is subject to the
// Additional Use Grant. See the LICENSE file for details.

package model

// Account is the profile of the logged-in user.
type Account struct {
	UID             int64    `json:"uid"`
	Email           string   `json:"account"`
	Name            string   `json:"name"`
	Avatar          string   `json:"avatar"`
	FanCount        int64    `json:"fanCount"`
	FollowCount     int64    `json:"followCount"`
	LikeCount       int64    `json:"likeCount"`
	CollectionCount int64    `json:"collectionCount"`
	DownloadCount   int64    `json:"downloadCount"`
	ProductModels   []string `json:"productModels"`
	MyLikeCount     int64    `json:"myLikeCount"`
	FavouritesCount int64    `json:"favouritesCount"`
	Point           int64    `json:"point"`
	Personal        Personal `json:"personal"`
}

// Personal carries the public-profile extras nested in an Account.
type Personal struct {
	Bio           string   `json:"bio"`
	Links         []string `json:"links"`
	TaskWeightSum float64  `json:"taskWeightSum"`
	TaskLengthSum int64    `json:"taskLengthSum"`
	TaskTimeSum   int64    `json:"taskTimeSum"`
	BackgroundURL string   `json:"backgroundUrl"`
}
