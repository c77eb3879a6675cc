// Package ads provides read and delete access to collected ads.
package ads
